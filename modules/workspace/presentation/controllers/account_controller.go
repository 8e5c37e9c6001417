package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/impersonation"
	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/controllers/dtos"
	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/mappers"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/application"
	"github.com/jacksonlee411/taskgrid/pkg/httpapi"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

type AccountController struct {
	app           application.Application
	onboarding    *services.OnboardingService
	impersonation *services.ImpersonationService
}

func NewAccountController(app application.Application) application.Controller {
	return &AccountController{
		app:           app,
		onboarding:    app.Service(services.OnboardingService{}).(*services.OnboardingService),
		impersonation: app.Service(services.ImpersonationService{}).(*services.ImpersonationService),
	}
}

func (c *AccountController) Key() string {
	return apiPrefix + "/account"
}

func (c *AccountController) Register(r *mux.Router) {
	public := r.PathPrefix(apiPrefix).Subrouter()
	public.HandleFunc("/health", c.Health).Methods(http.MethodGet)
	public.HandleFunc("/register", c.SignUp).Methods(http.MethodPost)

	api := authenticated(c.app, r)
	api.HandleFunc("/me", c.Me).Methods(http.MethodGet)
	api.HandleFunc("/invites", c.CreateInvite).Methods(http.MethodPost)
}

func (c *AccountController) Health(w http.ResponseWriter, r *http.Request) {
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SignUp registers a user, either bootstrapping an organization or redeeming an invite.
func (c *AccountController) SignUp(w http.ResponseWriter, r *http.Request) {
	var dto dtos.RegisterDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if !validated(w, r, &dto) {
		return
	}
	reg, err := c.onboarding.Register(r.Context(), dto.ToInput())
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, mappers.RegistrationToViewModel(reg))
}

func (c *AccountController) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := impersonation.FromContext(r.Context())
	if !ok {
		httpapi.WriteServiceError(w, r, serrors.Unauthenticated("AUTH_REQUIRED", "authentication required"))
		return
	}
	vm := mappers.SessionToViewModel(session)
	vm.Capabilities = c.impersonation.Capabilities(r.Context(), session.Effective())
	_ = httpapi.WriteJSON(w, http.StatusOK, vm)
}

func (c *AccountController) CreateInvite(w http.ResponseWriter, r *http.Request) {
	invite, err := c.onboarding.IssueInvite(r.Context())
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, mappers.InviteToViewModel(invite))
}
