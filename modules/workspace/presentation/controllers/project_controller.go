package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/controllers/dtos"
	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/mappers"
	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/viewmodels"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/application"
	"github.com/jacksonlee411/taskgrid/pkg/httpapi"
)

type ProjectController struct {
	app      application.Application
	projects *services.ProjectService
}

func NewProjectController(app application.Application) application.Controller {
	return &ProjectController{
		app:      app,
		projects: app.Service(services.ProjectService{}).(*services.ProjectService),
	}
}

func (c *ProjectController) Key() string {
	return apiPrefix + "/projects"
}

func (c *ProjectController) Register(r *mux.Router) {
	api := authenticated(c.app, r)
	api.HandleFunc("/projects", c.List).Methods(http.MethodGet)
	api.HandleFunc("/projects", c.Create).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", c.Get).Methods(http.MethodGet)
}

func (c *ProjectController) List(w http.ResponseWriter, r *http.Request) {
	q, ok := query(w, r, &dtos.ProjectQuery{})
	if !ok || !validated(w, r, q) {
		return
	}
	params := q.Params()
	projects, err := c.projects.List(r.Context(), q.Filters(), params)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, viewmodels.List[viewmodels.Project]{
		Items:  mappers.ProjectsToViewModels(projects),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

func (c *ProjectController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	project, err := c.projects.Get(r.Context(), id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.ProjectToViewModel(project))
}

func (c *ProjectController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CreateProjectDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if !validated(w, r, &dto) {
		return
	}
	project, err := c.projects.Create(r.Context(), dto.ToInput())
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, mappers.ProjectToViewModel(project))
}
