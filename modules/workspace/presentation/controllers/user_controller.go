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

type UserController struct {
	app   application.Application
	users *services.UserService
}

func NewUserController(app application.Application) application.Controller {
	return &UserController{
		app:   app,
		users: app.Service(services.UserService{}).(*services.UserService),
	}
}

func (c *UserController) Key() string {
	return apiPrefix + "/users"
}

func (c *UserController) Register(r *mux.Router) {
	api := authenticated(c.app, r)
	api.HandleFunc("/users", c.List).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/subordinates", c.Subordinates).Methods(http.MethodGet)
}

func (c *UserController) List(w http.ResponseWriter, r *http.Request) {
	q, ok := query(w, r, &dtos.UserQuery{})
	if !ok || !validated(w, r, q) {
		return
	}
	params := q.Params()
	users, err := c.users.List(r.Context(), q.ToQuery(), params)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, viewmodels.List[viewmodels.User]{
		Items:  mappers.UsersToViewModels(users),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

func (c *UserController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	user, err := c.users.Get(r.Context(), id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.UserToViewModel(user))
}

func (c *UserController) Subordinates(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	q, ok := query(w, r, &dtos.SubordinatesQuery{})
	if !ok || !validated(w, r, q) {
		return
	}
	subs, err := c.users.Subordinates(r.Context(), id, q.Depth)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": mappers.SubordinatesToViewModels(subs)})
}
