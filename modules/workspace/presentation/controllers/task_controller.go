package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/controllers/dtos"
	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/mappers"
	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/viewmodels"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/application"
	"github.com/jacksonlee411/taskgrid/pkg/httpapi"
)

type TaskController struct {
	app   application.Application
	tasks *services.TaskService
	now   func() time.Time
}

func NewTaskController(app application.Application) application.Controller {
	return &TaskController{
		app:   app,
		tasks: app.Service(services.TaskService{}).(*services.TaskService),
		now:   time.Now,
	}
}

func (c *TaskController) Key() string {
	return apiPrefix + "/tasks"
}

func (c *TaskController) Register(r *mux.Router) {
	api := authenticated(c.app, r)
	api.HandleFunc("/tasks/stats", c.Stats).Methods(http.MethodGet)
	api.HandleFunc("/tasks", c.List).Methods(http.MethodGet)
	api.HandleFunc("/tasks", c.Create).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/status", c.UpdateStatus).Methods(http.MethodPatch)
}

func (c *TaskController) List(w http.ResponseWriter, r *http.Request) {
	q, ok := query(w, r, &dtos.TaskQuery{})
	if !ok || !validated(w, r, q) {
		return
	}
	params := q.Params()
	tasks, err := c.tasks.List(r.Context(), q.Filters(), params)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, viewmodels.List[viewmodels.Task]{
		Items:  mappers.TasksToViewModels(tasks, c.now()),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

func (c *TaskController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	task, err := c.tasks.Get(r.Context(), id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.TaskToViewModel(task, c.now()))
}

func (c *TaskController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CreateTaskDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if !validated(w, r, &dto) {
		return
	}
	task, err := c.tasks.Create(r.Context(), dto.ToInput())
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, mappers.TaskToViewModel(task, c.now()))
}

func (c *TaskController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	var dto dtos.UpdateTaskStatusDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if !validated(w, r, &dto) {
		return
	}
	task, err := c.tasks.UpdateStatus(r.Context(), id, dto.TaskStatus(), dto.Comment)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.TaskToViewModel(task, c.now()))
}

// Stats serves the cached status aggregate for the caller's scope.
func (c *TaskController) Stats(w http.ResponseWriter, r *http.Request) {
	q, ok := query(w, r, &dtos.TaskQuery{})
	if !ok || !validated(w, r, q) {
		return
	}
	stats, err := c.tasks.Stats(r.Context(), q.Filters())
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, stats)
}
