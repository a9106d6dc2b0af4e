package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/oakfield/hearth-core/internal/infrastructure/config"
	"github.com/oakfield/hearth-core/internal/infrastructure/logging"
	"github.com/oakfield/hearth-core/internal/platform"
)

// memoryRepo is an in-memory EntryRepository for handler tests.
type memoryRepo struct {
	mu      sync.Mutex
	entries map[string]*platform.ConfigEntry
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{entries: make(map[string]*platform.ConfigEntry)}
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*platform.ConfigEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", platform.ErrEntryNotFound, id)
	}
	return entry.DeepCopy(), nil
}

func (r *memoryRepo) List(context.Context) ([]platform.ConfigEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]platform.ConfigEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e.DeepCopy())
	}
	return out, nil
}

func (r *memoryRepo) ListByDomain(_ context.Context, domain string) ([]platform.ConfigEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]platform.ConfigEntry, 0)
	for _, e := range r.entries {
		if e.Domain == domain {
			out = append(out, *e.DeepCopy())
		}
	}
	return out, nil
}

func (r *memoryRepo) Create(_ context.Context, entry *platform.ConfigEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry.DeepCopy()
	return nil
}

func (r *memoryRepo) Update(_ context.Context, entry *platform.ConfigEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.ID]; !ok {
		return fmt.Errorf("%w: %s", platform.ErrEntryNotFound, entry.ID)
	}
	r.entries[entry.ID] = entry.DeepCopy()
	return nil
}

func (r *memoryRepo) UpdateState(_ context.Context, id string, state platform.EntryState, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", platform.ErrEntryNotFound, id)
	}
	entry.State = state
	entry.StateReason = reason
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("%w: %s", platform.ErrEntryNotFound, id)
	}
	delete(r.entries, id)
	return nil
}

// stubEntity is a minimal entity for registry-backed handlers.
type stubEntity struct {
	id        string
	name      string
	domain    string
	available bool
	state     any
}

func (e *stubEntity) UniqueID() string { return e.id }
func (e *stubEntity) Name() string     { return e.name }
func (e *stubEntity) Domain() string   { return e.domain }
func (e *stubEntity) Available() bool  { return e.available }
func (e *stubEntity) State() any       { return e.state }

// stubCamera adds an Image method to stubEntity.
type stubCamera struct {
	stubEntity
	image    []byte
	imageErr error
}

func (e *stubCamera) Image(context.Context) ([]byte, error) {
	return e.image, e.imageErr
}

// nullIntegration loads every entry without side effects.
type nullIntegration struct{ domain string }

func (i *nullIntegration) Domain() string { return i.domain }

func (i *nullIntegration) SetupEntry(context.Context, *platform.ConfigEntry) (platform.UnloadFunc, error) {
	return func(context.Context) error { return nil }, nil
}

type testEnv struct {
	server   *Server
	repo     *memoryRepo
	registry *platform.EntityRegistry
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")

	repo := newMemoryRepo()
	registry := platform.NewEntityRegistry()
	manager := platform.NewManager(repo, registry, platform.ManagerOptions{})
	manager.Register(&nullIntegration{domain: "weather"})

	server, err := New(Deps{
		Config: config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS:     config.WebSocketConfig{Path: "/ws", PingInterval: 30, PongTimeout: 10},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:         "0123456789abcdef0123456789abcdef",
				AccessTokenTTL: 15,
			},
			Admin: config.AdminAuthConfig{Username: "admin", Password: "hunter22"},
		},
		Logger:    logger,
		Manager:   manager,
		Registry:  registry,
		EntryRepo: repo,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	server.hub = NewHub(server.wsCfg, logger)

	return &testEnv{
		server:   server,
		repo:     repo,
		registry: registry,
		router:   server.buildRouter(),
	}
}

// login returns a valid bearer token via the login endpoint.
func (env *testEnv) login(t *testing.T) string {
	t.Helper()

	body := `{"username": "admin", "password": "hunter22"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	return resp.Token
}

// do performs an authenticated request against the test router.
func (env *testEnv) do(t *testing.T, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth_NoAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "", http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"wrong password", `{"username": "admin", "password": "wrong"}`},
		{"wrong username", `{"username": "root", "password": "hunter22"}`},
		{"garbage body", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tt.body))
			env.router.ServeHTTP(rec, req)
			if rec.Code == http.StatusOK {
				t.Error("login succeeded with invalid credentials")
			}
		})
	}
}

func TestAuthMiddleware_RejectsMissingAndBadTokens(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"malformed token", "not-a-jwt"},
		{"wrong signature", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhZG1pbiJ9.bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.token, http.MethodGet, "/api/v1/entries", nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestEntries_CreateSetsUpAndLists(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, token, http.MethodPost, "/api/v1/entries", map[string]any{
		"domain": "weather",
		"title":  "Backyard Weather",
		"data":   map[string]any{"api_key": "secret-key"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}
	if created["state"] != "loaded" {
		t.Errorf("state = %v, want loaded", created["state"])
	}
	if _, leaked := created["data"]; leaked {
		t.Error("entry data must not appear in API responses")
	}

	rec = env.do(t, token, http.MethodGet, "/api/v1/entries", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d entries, want 1", len(listed))
	}
	if strings.Contains(rec.Body.String(), "secret-key") {
		t.Error("entry data leaked into list response")
	}
}

func TestEntries_CreateUnknownDomainRecordsSetupError(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, token, http.MethodPost, "/api/v1/entries", map[string]any{
		"domain": "toaster",
		"title":  "Kitchen Toaster",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	var created map[string]any
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created["state"] != "setup_error" {
		t.Errorf("state = %v, want setup_error", created["state"])
	}
}

func TestEntries_GetNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, token, http.MethodGet, "/api/v1/entries/no-such-entry", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestEntries_DeleteUnloadsAndRemoves(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, token, http.MethodPost, "/api/v1/entries", map[string]any{
		"domain": "weather",
		"title":  "Doomed Entry",
	})
	var created map[string]any
	json.Unmarshal(rec.Body.Bytes(), &created)
	id := created["id"].(string)

	rec = env.do(t, token, http.MethodDelete, "/api/v1/entries/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = env.do(t, token, http.MethodGet, "/api/v1/entries/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("entry still present after delete, status = %d", rec.Code)
	}
}

func TestEntries_ReloadKeepsEntryLoaded(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, token, http.MethodPost, "/api/v1/entries", map[string]any{
		"domain": "weather",
		"title":  "Reloadable",
	})
	var created map[string]any
	json.Unmarshal(rec.Body.Bytes(), &created)
	id := created["id"].(string)

	rec = env.do(t, token, http.MethodPost, "/api/v1/entries/"+id+"/reload", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reload status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var reloaded map[string]any
	json.Unmarshal(rec.Body.Bytes(), &reloaded)
	if reloaded["state"] != "loaded" {
		t.Errorf("state after reload = %v, want loaded", reloaded["state"])
	}
}

func TestEntries_UpdateOptionsPersists(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, token, http.MethodPost, "/api/v1/entries", map[string]any{
		"domain": "weather",
		"title":  "Optioned",
	})
	var created map[string]any
	json.Unmarshal(rec.Body.Bytes(), &created)
	id := created["id"].(string)

	rec = env.do(t, token, http.MethodPut, "/api/v1/entries/"+id+"/options",
		map[string]any{"hourly_forecast": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("update options status = %d", rec.Code)
	}

	var updated map[string]any
	json.Unmarshal(rec.Body.Bytes(), &updated)
	options := updated["options"].(map[string]any)
	if options["hourly_forecast"] != true {
		t.Errorf("options = %v, want hourly_forecast true", options)
	}
}

func TestEntities_ListAndGet(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	env.registry.Add("entry-1", &stubEntity{
		id: "weather-entry-1-daily", name: "Backyard daily",
		domain: "weather", available: true, state: map[string]any{"temperature": 21.5},
	})

	rec := env.do(t, token, http.MethodGet, "/api/v1/entities", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed []map[string]any
	json.Unmarshal(rec.Body.Bytes(), &listed)
	if len(listed) != 1 {
		t.Fatalf("listed %d entities, want 1", len(listed))
	}

	rec = env.do(t, token, http.MethodGet, "/api/v1/entities/weather-entry-1-daily", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var entity map[string]any
	json.Unmarshal(rec.Body.Bytes(), &entity)
	if entity["available"] != true {
		t.Errorf("available = %v, want true", entity["available"])
	}

	rec = env.do(t, token, http.MethodGet, "/api/v1/entities/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing entity status = %d, want 404", rec.Code)
	}
}

func TestEntityImage_Rules(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	env.registry.Add("entry-1", &stubCamera{
		stubEntity: stubEntity{id: "cam-ok", domain: "nvr", available: true},
		image:      jpeg,
	})
	env.registry.Add("entry-1", &stubCamera{
		stubEntity: stubEntity{id: "cam-down", domain: "nvr"},
	})
	env.registry.Add("entry-1", &stubCamera{
		stubEntity: stubEntity{id: "cam-broken", domain: "nvr"},
		imageErr:   fmt.Errorf("decoder fault"),
	})
	env.registry.Add("entry-1", &stubEntity{id: "not-a-camera", domain: "weather"})

	t.Run("success returns jpeg bytes", func(t *testing.T) {
		rec := env.do(t, token, http.MethodGet, "/api/v1/entities/cam-ok/image", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "image/jpeg" {
			t.Errorf("Content-Type = %q", got)
		}
		if !bytes.Equal(rec.Body.Bytes(), jpeg) {
			t.Error("image bytes modified in transit")
		}
	})

	t.Run("nil image maps to 503", func(t *testing.T) {
		rec := env.do(t, token, http.MethodGet, "/api/v1/entities/cam-down/image", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("image error maps to 500", func(t *testing.T) {
		rec := env.do(t, token, http.MethodGet, "/api/v1/entities/cam-broken/image", nil)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})

	t.Run("non-camera entity maps to 400", func(t *testing.T) {
		rec := env.do(t, token, http.MethodGet, "/api/v1/entities/not-a-camera/image", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestWeatherConditions_FiltersByDomain(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	env.registry.Add("entry-1", &stubEntity{
		id: "weather-entry-1-daily", domain: "weather", available: true,
		state: map[string]any{"condition": "sunny", "temperature": 18.2},
	})
	env.registry.Add("entry-2", &stubEntity{id: "cam-1", domain: "nvr"})

	rec := env.do(t, token, http.MethodGet, "/api/v1/weather", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var conditions []map[string]any
	json.Unmarshal(rec.Body.Bytes(), &conditions)
	if len(conditions) != 1 {
		t.Fatalf("returned %d entities, want 1 weather entity", len(conditions))
	}
	state := conditions[0]["state"].(map[string]any)
	if state["condition"] != "sunny" {
		t.Errorf("condition = %v, want sunny", state["condition"])
	}
}

func TestWSTicket_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, token, http.MethodPost, "/api/v1/auth/ws-ticket", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ticket status = %d", rec.Code)
	}

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	ticket := resp["ticket"].(string)

	if username, ok := validateTicket(ticket); !ok || username != "admin" {
		t.Errorf("validateTicket() = %q, %v; want admin, true", username, ok)
	}
	if _, ok := validateTicket(ticket); ok {
		t.Error("ticket redeemed twice; tickets must be single use")
	}
}

func TestWebSocket_RejectsMissingTicket(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "", http.MethodGet, "/ws", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
