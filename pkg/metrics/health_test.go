package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetHealth clears the process-global registry between tests.
func resetHealth(t *testing.T) {
	t.Helper()
	registry.mu.Lock()
	registry.probes = make(map[string]*probe)
	registry.required = []string{"api"}
	registry.version = ""
	registry.mu.Unlock()
}

func TestGetHealth_FlagComponentDownMakesOverallUnhealthy(t *testing.T) {
	resetHealth(t)
	RegisterComponent("api", true, "serving")
	RegisterComponent("jobstore", false, "manifest open failed")

	h := GetHealth()
	assert.Equal(t, "unhealthy", h.Status)
	assert.Equal(t, "healthy", h.Components["api"])
	assert.Contains(t, h.Components["jobstore"], "manifest open failed")
}

func TestGetHealth_ReregisteringComponentOverwritesState(t *testing.T) {
	resetHealth(t)
	RegisterComponent("jobstore", false, "opening")
	RegisterComponent("jobstore", true, "manifest open")

	h := GetHealth()
	assert.Equal(t, "healthy", h.Status)
}

func TestGetHealth_SilentLoopGoesStale(t *testing.T) {
	resetHealth(t)
	RegisterLoop("scheduler", time.Nanosecond)
	time.Sleep(time.Millisecond)

	h := GetHealth()
	assert.Equal(t, "unhealthy", h.Status)
	assert.Contains(t, h.Components["scheduler"], "no heartbeat")
}

func TestBeat_KeepsLoopHealthy(t *testing.T) {
	resetHealth(t)
	RegisterLoop("sweeper", time.Hour)
	Beat("sweeper")

	h := GetHealth()
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "healthy", h.Components["sweeper"])
}

func TestBeat_IgnoresFlagComponentsAndUnknownNames(t *testing.T) {
	resetHealth(t)
	RegisterComponent("api", false, "binding")
	Beat("api")
	Beat("never-registered")

	h := GetHealth()
	assert.Equal(t, "unhealthy", h.Status, "Beat must not revive a down flag component")
}

func TestGetReadiness_WaitsForRequiredRegistration(t *testing.T) {
	resetHealth(t)

	rd := GetReadiness()
	assert.Equal(t, "not_ready", rd.Status)
	assert.Equal(t, "not registered", rd.Components["api"])
	assert.Contains(t, rd.Message, "api")

	RegisterComponent("api", true, "serving")
	rd = GetReadiness()
	assert.Equal(t, "ready", rd.Status)
}

func TestGetReadiness_HonorsRequireComponents(t *testing.T) {
	resetHealth(t)
	RegisterComponent("api", true, "serving")
	RequireComponents("api", "scheduler")

	rd := GetReadiness()
	assert.Equal(t, "not_ready", rd.Status, "scheduler required but not registered")

	RegisterLoop("scheduler", time.Hour)
	rd = GetReadiness()
	assert.Equal(t, "ready", rd.Status)
}

func TestGetReadiness_IgnoresUnrequiredUnhealthyComponents(t *testing.T) {
	resetHealth(t)
	RegisterComponent("api", true, "serving")
	RegisterComponent("jobstore", false, "manifest open failed")

	rd := GetReadiness()
	assert.Equal(t, "ready", rd.Status, "readiness only gates on required components")
	assert.NotContains(t, rd.Components, "jobstore")
}

func TestReadyHandler_StatusCodeTracksReadiness(t *testing.T) {
	resetHealth(t)

	rec := httptest.NewRecorder()
	ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	RegisterComponent("api", true, "serving")
	rec = httptest.NewRecorder()
	ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Status)
}

func TestHealthHandler_ReportsVersionAndUptime(t *testing.T) {
	resetHealth(t)
	SetVersion("1.2.3")
	RegisterComponent("api", true, "serving")

	rec := httptest.NewRecorder()
	HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1.2.3", body.Version)
	assert.NotEmpty(t, body.Uptime)
}

func TestLivenessHandler_AlwaysOK(t *testing.T) {
	resetHealth(t)

	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alive", body["status"])
}
