package handler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"kernex-dashboard/internal/auth"
	"kernex-dashboard/internal/controlplane"
	"kernex-dashboard/internal/fleet/model"
	"kernex-dashboard/internal/fleet/service"
	"kernex-dashboard/internal/liveness"
	"kernex-dashboard/internal/middleware"
	"kernex-dashboard/internal/uistate"
	"kernex-dashboard/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	tokens  *auth.MemoryTokenStore
	store   *uistate.Store
	created atomic.Int32
}

const fleetDevices = `{"devices":[
	{"device_id":"edge-cam-01","device_type":"jetson_orin","status":"online","current_bundle_version":"v2.1.4"},
	{"device_id":"edge-gw-01","device_type":"raspberry_pi","status":"offline","current_bundle_version":"v2.0.9"},
	{"device_id":"edge-cam-02","device_type":"jetson_nano","status":"degraded","current_bundle_version":"v2.1.3"}
]}`

func newTestEnv(t *testing.T, upstream http.HandlerFunc, fallback bool) *testEnv {
	t.Helper()
	env := &testEnv{}

	if upstream == nil {
		upstream = func(w http.ResponseWriter, r *http.Request) {
			switch r.Method + " " + r.URL.Path {
			case "GET /health":
				w.WriteHeader(http.StatusOK)
			case "GET /devices":
				_, _ = io.WriteString(w, fleetDevices)
			case "POST /deployments":
				env.created.Add(1)
				w.WriteHeader(http.StatusCreated)
				_, _ = io.WriteString(w, `{"deployment_id":"d-1","status":"pending"}`)
			case "POST /bundles":
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				_, _ = io.WriteString(w, `{"bundle_id":"b-7","version":"`+r.FormValue("version")+`","checksum_sha256":"abc"}`)
			case "POST /auth/login":
				_, _ = io.WriteString(w, `{"access_token":"opaque-token","token_type":"bearer","expires_in":3600}`)
			default:
				http.NotFound(w, r)
			}
		}
	}
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	env.tokens = auth.NewMemoryTokenStore()
	env.store = uistate.NewStore()
	client := controlplane.NewClient(srv.URL, 2*time.Second, env.tokens)
	prober := liveness.NewProber(client)
	tracker := service.NewFetchTracker()
	orch := service.NewOrchestrator(prober, fallback, service.WithLatencyScale(0), service.WithTracker(tracker))
	svc := service.NewService(client, orch, service.MustLoadEmbeddedDataset(time.Now()))

	env.router = gin.New()
	env.router.Use(middleware.RequestIDMiddleware())
	v1 := env.router.Group("/api/v1")
	NewFleetHandler(svc).RegisterRoutes(v1)
	NewSystemHandler(svc, prober, tracker).RegisterRoutes(v1)
	NewAuthHandler(svc, env.tokens).RegisterRoutes(v1)
	NewUIHandler(env.store, nil).RegisterRoutes(v1)
	return env
}

func (e *testEnv) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope[T any] struct {
	utils.APIResponse
	Data T `json:"data"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func TestListDevicesRanksAndFilters(t *testing.T) {
	env := newTestEnv(t, nil, false)

	w := env.do(http.MethodGet, "/api/v1/devices?q=CAM&sort=status&order=asc", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	resp := decode[[]model.Device](t, w)
	if len(resp.Data) != 2 || resp.Data[0].ID != "edge-cam-01" || resp.Data[1].ID != "edge-cam-02" {
		t.Fatalf("unexpected devices %+v", resp.Data)
	}

	w = env.do(http.MethodGet, "/api/v1/devices?sort=cpu", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown sort field should be rejected, got %d", w.Code)
	}
}

func TestBackendUnavailableMapsTo503(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, false)

	w := env.do(http.MethodGet, "/api/v1/devices", nil, "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	resp := decode[any](t, w)
	if resp.Code != "backend_unavailable" || resp.Notice == "" {
		t.Fatalf("unexpected error body %+v", resp.APIResponse)
	}
}

func TestFallbackServesDataset(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, true)

	w := env.do(http.MethodGet, "/api/v1/dashboard/success-rate", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if rate := decode[model.SuccessRateSummary](t, w).Data; rate.Rate != 99.8 {
		t.Fatalf("expected fallback success rate, got %+v", rate)
	}

	w = env.do(http.MethodGet, "/api/v1/stats", nil, "")
	stats := decode[service.FetchStats](t, w).Data
	if stats[service.DomainSuccessRate].FallbackResponses != 1 {
		t.Fatalf("fallback not tracked: %+v", stats)
	}
}

func TestDeviceNotFoundCarriesNotice(t *testing.T) {
	env := newTestEnv(t, nil, false)

	w := env.do(http.MethodGet, "/api/v1/devices/unknown-device", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if resp := decode[any](t, w); resp.Notice != "Resource not found" || resp.Code != "not_found" {
		t.Fatalf("unexpected body %+v", resp.APIResponse)
	}
}

func TestCreateDeploymentValidation(t *testing.T) {
	env := newTestEnv(t, nil, false)

	w := env.do(http.MethodPost, "/api/v1/deployments", strings.NewReader(`{"bundle_version":"v2.1.4","target_devices":[]}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty targets should be rejected, got %d", w.Code)
	}
	if env.created.Load() != 0 {
		t.Fatalf("invalid request reached the control plane")
	}

	w = env.do(http.MethodPost, "/api/v1/deployments", strings.NewReader(`{"bundle_version":"v2.1.4","target_devices":["edge-cam-01"]}`), "application/json")
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if receipt := decode[model.DeploymentReceipt](t, w).Data; receipt.DeploymentID != "d-1" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}

func TestUploadBundle(t *testing.T) {
	env := newTestEnv(t, nil, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "model.tar.gz")
	_, _ = fw.Write([]byte("payload"))
	_ = mw.WriteField("manifest", `{"version":"v3.0.0","name":"qwen"}`)
	_ = mw.Close()

	w := env.do(http.MethodPost, "/api/v1/bundles", &body, mw.FormDataContentType())
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if receipt := decode[model.BundleReceipt](t, w).Data; receipt.BundleID != "b-7" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	w = env.do(http.MethodPost, "/api/v1/bundles", strings.NewReader(""), "multipart/form-data; boundary=x")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing file should be rejected, got %d", w.Code)
	}
}

func TestLoginStoresSession(t *testing.T) {
	env := newTestEnv(t, nil, false)

	w := env.do(http.MethodGet, "/api/v1/auth/session", nil, "")
	if decode[sessionResponse](t, w).Data.Authenticated {
		t.Fatalf("no session expected before login")
	}

	w = env.do(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"operator","password":"secret"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	w = env.do(http.MethodGet, "/api/v1/auth/session", nil, "")
	session := decode[sessionResponse](t, w).Data
	if !session.Authenticated || session.ExpiresAt == nil {
		t.Fatalf("expected an authenticated session, got %+v", session)
	}

	env.do(http.MethodPost, "/api/v1/auth/logout", nil, "")
	if _, ok := env.tokens.Token(); ok {
		t.Fatalf("logout should clear the token")
	}
}

func TestUIStateEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, false)

	env.do(http.MethodPost, "/api/v1/ui/sidebar/toggle", nil, "")
	w := env.do(http.MethodPost, "/api/v1/ui/inspector", strings.NewReader(`{"deviceId":"edge-cam-01"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	env.do(http.MethodPut, "/api/v1/ui/filter", strings.NewReader(`{"filter":"cam"}`), "application/json")

	sel := decode[uistate.Selection](t, env.do(http.MethodGet, "/api/v1/ui/state", nil, "")).Data
	if !sel.SidebarCollapsed || !sel.InspectorOpen || sel.SelectedDeviceID == nil || *sel.SelectedDeviceID != "edge-cam-01" || sel.DeviceFilter != "cam" {
		t.Fatalf("unexpected selection %+v", sel)
	}

	env.do(http.MethodDelete, "/api/v1/ui/inspector", nil, "")
	if snap := env.store.Snapshot(); snap.InspectorOpen || snap.SelectedDeviceID != nil {
		t.Fatalf("inspector should be closed: %+v", snap)
	}
}

func TestUIStreamPushesChanges(t *testing.T) {
	env := newTestEnv(t, nil, false)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ui/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var initial uistate.Selection
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial state: %v", err)
	}
	if initial.SidebarCollapsed {
		t.Fatalf("unexpected initial state %+v", initial)
	}

	env.store.ToggleSidebar()

	var update uistate.Selection
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if !update.SidebarCollapsed {
		t.Fatalf("expected collapsed sidebar, got %+v", update)
	}
}

func TestLivenessEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, true)

	w := env.do(http.MethodGet, "/api/v1/liveness", nil, "")
	resp := decode[livenessResponse](t, w).Data
	if !resp.Available || !resp.Checked || !resp.FallbackEnabled {
		t.Fatalf("unexpected liveness %+v", resp)
	}
}
