package routinggates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalserver "github.com/jacksonlee411/taskgrid/internal/server"
	"github.com/jacksonlee411/taskgrid/pkg/configuration"
	"github.com/jacksonlee411/taskgrid/pkg/httpapi"
	"github.com/jacksonlee411/taskgrid/pkg/routing"
	pkgserver "github.com/jacksonlee411/taskgrid/pkg/server"
)

type route struct {
	path    string
	methods []string
}

func buildServer(t *testing.T) *pkgserver.HTTPServer {
	t.Helper()
	conf, err := configuration.Load(nil)
	require.NoError(t, err)

	rt, err := internalserver.NewRuntime(context.Background(), conf)
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	return internalserver.Default(&internalserver.DefaultOptions{
		Logger:        conf.Logger(),
		Configuration: conf,
		Application:   rt.App,
		Pool:          rt.Pool,
	})
}

func collectRoutes(t *testing.T, r *mux.Router) []route {
	t.Helper()
	var out []route
	err := r.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tpl, err := rt.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := rt.GetMethods()
		if err != nil {
			return nil
		}
		out = append(out, route{path: tpl, methods: methods})
		return nil
	})
	require.NoError(t, err)
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

func TestExposureBaseline_EveryRouteIsClassified(t *testing.T) {
	rules, err := routing.LoadAllowlist("", "server")
	require.NoError(t, err)
	classifier := routing.NewClassifier(rules)

	routes := collectRoutes(t, buildServer(t).Router())
	require.NotEmpty(t, routes)

	var unknown []string
	for _, r := range routes {
		if classifier.ClassifyPath(r.path) == routing.RouteClassUnknown {
			unknown = append(unknown, r.path)
		}
	}
	if len(unknown) > 0 {
		t.Fatalf("routes missing from config/routing/allowlist.yaml:\n%s", strings.Join(unknown, "\n"))
	}
}

func TestExposureBaseline_APIRoutesRejectAnonymousCallers(t *testing.T) {
	rules, err := routing.LoadAllowlist("", "server")
	require.NoError(t, err)
	classifier := routing.NewClassifier(rules)

	srv := buildServer(t)
	handler := srv.Handler()
	for _, r := range collectRoutes(t, srv.Router()) {
		class := classifier.ClassifyPath(r.path)
		path := strings.ReplaceAll(r.path, "{id}", uuid.NewString())
		for _, method := range r.methods {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(method, "http://example.com"+path, strings.NewReader("{}")))
			if class.RequiresAuth() {
				assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", method, r.path)
			} else {
				assert.NotEqual(t, http.StatusUnauthorized, rr.Code, "%s %s", method, r.path)
			}
		}
	}
}

func TestAPIErrorContracts_JSONOnly_For404And405(t *testing.T) {
	handler := buildServer(t).Handler()

	t.Run("404 is json", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/__nonexistent__", nil)
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
		require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		var payload httpapi.ErrorEnvelope
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&payload))
		require.Equal(t, "NOT_FOUND", payload.Code)
	})

	t.Run("405 is json", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "http://example.com/api/v1/health", nil)
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		var payload httpapi.ErrorEnvelope
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&payload))
		require.Equal(t, "METHOD_NOT_ALLOWED", payload.Code)
	})
}
