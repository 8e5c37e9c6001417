package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/controllers/dtos"
	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/mappers"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/application"
	"github.com/jacksonlee411/taskgrid/pkg/httpapi"
)

type TeamController struct {
	app   application.Application
	teams *services.TeamService
}

func NewTeamController(app application.Application) application.Controller {
	return &TeamController{
		app:   app,
		teams: app.Service(services.TeamService{}).(*services.TeamService),
	}
}

func (c *TeamController) Key() string {
	return apiPrefix + "/teams"
}

func (c *TeamController) Register(r *mux.Router) {
	api := authenticated(c.app, r)
	api.HandleFunc("/teams", c.Create).Methods(http.MethodPost)
	api.HandleFunc("/teams/{id}", c.Get).Methods(http.MethodGet)
}

func (c *TeamController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CreateTeamDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if !validated(w, r, &dto) {
		return
	}
	team, err := c.teams.Create(r.Context(), dto.Name, dto.AdminID())
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, mappers.TeamToViewModel(team))
}

func (c *TeamController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	team, err := c.teams.Get(r.Context(), id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.TeamToViewModel(team))
}
