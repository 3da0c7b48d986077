package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pitabwire/shinsei/internal/auth"
	"github.com/pitabwire/shinsei/internal/catalog"
	"github.com/pitabwire/shinsei/internal/config"
	"github.com/pitabwire/shinsei/internal/contract"
	"github.com/pitabwire/shinsei/internal/directory"
	"github.com/pitabwire/shinsei/internal/observability"
	"github.com/pitabwire/shinsei/internal/postal"
	"github.com/pitabwire/shinsei/internal/request"
	"github.com/pitabwire/shinsei/internal/screen"
	"github.com/pitabwire/shinsei/internal/session"
)

type finderFunc func(ctx context.Context, code string) (postal.Address, error)

func (f finderFunc) Find(ctx context.Context, code string) (postal.Address, error) {
	return f(ctx, code)
}

type testServer struct {
	router http.Handler
	store  *session.MemoryStore
	cookie string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newLoggedTestServer(t, zap.NewNop())
}

func newLoggedTestServer(t *testing.T, logger *zap.Logger) *testServer {
	t.Helper()
	cfg := config.Defaults()
	cfg.Server.CORS.AllowedOrigins = []string{"https://app.example.com"}
	cfg.Server.HandlerTimeout = 5 * time.Second
	cfg.Server.MaxUploadBytes = 1 << 20

	c, err := contract.Load()
	if err != nil {
		t.Fatalf("contract.Load() error = %v", err)
	}
	reg := prometheus.NewRegistry()
	metrics := observability.InitMetrics(reg)
	cat := catalog.NewRegistry(catalog.Builtin())

	finder := finderFunc(func(_ context.Context, code string) (postal.Address, error) {
		if code == "1000001" {
			return postal.Address{Code: code, Prefecture: "東京都", City: "千代田区", Town: "千代田"}, nil
		}
		return postal.Address{}, postal.ErrNotFound
	})
	manager := screen.NewManager(screen.Deps{
		Catalog:   cat,
		Forms:     request.DefaultRegistry(),
		Directory: directory.Builtin(),
		Postal:    finder,
		Recorder:  metrics,
	}, time.Hour)

	store := session.NewMemoryStore()
	screens := screen.NewRouter(auth.NewChecker(cfg.Auth), store, session.NewSigner("test-secret", time.Hour), manager)

	return &testServer{
		store:  store,
		cookie: cfg.Session.CookieName,
		router: NewRouter(Dependencies{
			Config:   cfg,
			Screens:  screens,
			Catalog:  cat,
			Contract: c,
			Metrics:  metrics,
			Gatherer: reg,
			Readiness: observability.ReadinessChecks{
				CatalogLoaded:  func() bool { return len(cat.IDs()) > 0 },
				ContractLoaded: func() bool { return c != nil },
				SessionStore:   observability.CheckFunc(store.Ping),
			},
			Logger: logger,
		}),
	}
}

// testScreen is the subset of the screen view the tests look at.
type testScreen struct {
	Screen string `json:"screen"`
	Login  *struct {
		Message string `json:"message"`
	} `json:"login"`
	Header *struct {
		UserName    string `json:"user_name"`
		ManagerName string `json:"manager_name"`
	} `json:"header"`
	Selected string `json:"selected_workflow"`
	Form     *struct {
		WorkflowID string `json:"workflow_id"`
		Phase      string `json:"phase"`
		Fields     []struct {
			ID    string `json:"id"`
			Value string `json:"value"`
			Error string `json:"error"`
			Files []struct {
				Name        string `json:"name"`
				Size        int64  `json:"size"`
				ContentType string `json:"content_type"`
			} `json:"files"`
		} `json:"fields"`
	} `json:"form"`
	Modal struct {
		Confirmation *struct {
			Title        string `json:"title"`
			ConfirmLabel string `json:"confirm_label"`
			CancelLabel  string `json:"cancel_label"`
		} `json:"confirmation"`
		Message *struct {
			Title   string `json:"title"`
			Body    string `json:"body"`
			IsError bool   `json:"is_error"`
		} `json:"message"`
	} `json:"modal"`
}

func (s testScreen) field(id string) (value, errMsg string) {
	if s.Form == nil {
		return "", ""
	}
	for _, f := range s.Form.Fields {
		if f.ID == id {
			return f.Value, f.Error
		}
	}
	return "", ""
}

type testError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"details"`
	} `json:"error"`
	Screen *testScreen `json:"screen"`
}

func decodeScreen(t *testing.T, w *httptest.ResponseRecorder) testScreen {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var s testScreen
	if err := json.NewDecoder(w.Body).Decode(&s); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return s
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) testError {
	t.Helper()
	var e testError
	if err := json.NewDecoder(w.Body).Decode(&e); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return e
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: s.cookie, Value: token})
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == s.cookie {
			return c
		}
	}
	return nil
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	w := s.do("POST", "/api/session", "", map[string]string{"login_id": "jqit@gmail.com", "password": "password"})
	decodeScreen(t, w)
	c := s.sessionCookie(w)
	if c == nil || c.Value == "" {
		t.Fatal("login should set the session cookie")
	}
	return c.Value
}

func TestGetScreen_withoutSession(t *testing.T) {
	s := newTestServer(t)

	v := decodeScreen(t, s.do("GET", "/api/screen", "", nil))
	if v.Screen != "login" {
		t.Errorf("screen = %q, want login", v.Screen)
	}

	w := s.do("GET", "/api/screen", "forged", nil)
	if v := decodeScreen(t, w); v.Screen != "login" {
		t.Errorf("screen with forged token = %q, want login", v.Screen)
	}
	if c := s.sessionCookie(w); c == nil || c.MaxAge >= 0 {
		t.Error("a stale cookie should be cleared")
	}
}

func TestLogin_failure(t *testing.T) {
	s := newTestServer(t)

	w := s.do("POST", "/api/session", "", map[string]string{"login_id": "jqit@gmail.com", "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if s.sessionCookie(w) != nil {
		t.Error("no cookie should be set on failure")
	}
	resp := decodeError(t, w)
	if resp.Error.Code != "LOGIN_FAILED" || resp.Error.Message != auth.PasswordInvalid.Message() {
		t.Errorf("error = %+v", resp.Error)
	}
	if resp.Screen == nil || resp.Screen.Login == nil || resp.Screen.Login.Message != auth.PasswordInvalid.Message() {
		t.Errorf("login screen should carry the message, got %+v", resp.Screen)
	}
}

func TestLogin_failureLogsRedactedBody(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := newLoggedTestServer(t, zap.New(core))

	s.do("POST", "/api/session", "", map[string]string{"login_id": "jqit@gmail.com", "password": "hunter2"})
	s.do("POST", "/api/session", "", map[string]any{"password": "hunter2"})

	entries := logs.FilterMessage("request body rejected").All()
	if len(entries) != 2 {
		t.Fatalf("rejected body entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		fields := e.ContextMap()
		body, ok := fields["body"].(map[string]any)
		if !ok {
			t.Fatalf("body = %#v, want a map", fields["body"])
		}
		if body["password"] != "[REDACTED]" {
			t.Errorf("password = %v, want [REDACTED]", body["password"])
		}
		if fields["operation"] != "login" {
			t.Errorf("operation = %v, want login", fields["operation"])
		}
	}
	if got := entries[0].ContextMap()["body"].(map[string]any)["login_id"]; got != "jqit@gmail.com" {
		t.Errorf("login_id = %v", got)
	}
}

func TestLogin_contractViolation(t *testing.T) {
	s := newTestServer(t)

	w := s.do("POST", "/api/session", "", map[string]any{"login_id": "jqit@gmail.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Error.Code != "BAD_REQUEST" || len(resp.Error.Details) == 0 {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestLogin_success(t *testing.T) {
	s := newTestServer(t)

	w := s.do("POST", "/api/session", "", map[string]string{"login_id": " jqit@gmail.com ", "password": "password"})
	v := decodeScreen(t, w)
	if v.Screen != "workflow" {
		t.Fatalf("screen = %q, want workflow", v.Screen)
	}
	if v.Header == nil || v.Header.UserName != "田中 太郎" {
		t.Errorf("header = %+v", v.Header)
	}
	c := s.sessionCookie(w)
	if c == nil || !c.HttpOnly || c.MaxAge <= 0 {
		t.Fatalf("cookie = %+v", c)
	}
	if s.store.Len() != 1 {
		t.Errorf("store has %d sessions, want 1", s.store.Len())
	}

	if v := decodeScreen(t, s.do("GET", "/api/screen", c.Value, nil)); v.Screen != "workflow" {
		t.Errorf("entry screen = %q, want workflow", v.Screen)
	}
}

func TestSelectWorkflow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do("PUT", "/api/workflow", token, map[string]string{"workflow_id": "wf9_unknown"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != "UNKNOWN_WORKFLOW" || resp.Screen == nil {
		t.Errorf("error = %+v", resp)
	}

	v := decodeScreen(t, s.do("PUT", "/api/workflow", token, map[string]string{"workflow_id": request.DependentID}))
	if v.Form == nil || v.Form.WorkflowID != request.DependentID || v.Selected != request.DependentID {
		t.Fatalf("form = %+v", v.Form)
	}
	if val, _ := v.field("dependentApplicationType"); val != "register" {
		t.Errorf("dependentApplicationType = %q, want register", val)
	}

	v = decodeScreen(t, s.do("PUT", "/api/workflow", token, map[string]string{"workflow_id": ""}))
	if v.Form != nil {
		t.Error("empty selection should unmount the form")
	}
}

func TestSubmit_lifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	decodeScreen(t, s.do("PUT", "/api/workflow", token, map[string]string{"workflow_id": request.DependentID}))

	w := s.do("POST", "/api/form/submit", token, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Error.Code != "VALIDATION_ERROR" || len(resp.Error.Details) != 3 {
		t.Fatalf("error = %+v", resp.Error)
	}
	if resp.Error.Details[0].Field != "dependentDate" {
		t.Errorf("first detail = %q, want dependentDate", resp.Error.Details[0].Field)
	}
	if _, msg := resp.Screen.field("dependentReason"); msg != "理由を入力してください。" {
		t.Errorf("inline message = %q", msg)
	}

	v := decodeScreen(t, s.do("PATCH", "/api/form/fields", token, map[string]any{
		"fields": []map[string]string{
			{"id": "dependentDate", "value": "2026/01/15"},
			{"id": "dependentRelationship", "value": "子"},
			{"id": "dependentReason", "value": "出生のため"},
		},
	}))
	if val, _ := v.field("dependentReason"); val != "出生のため" {
		t.Errorf("dependentReason = %q", val)
	}

	v = decodeScreen(t, s.do("POST", "/api/form/submit", token, nil))
	if v.Modal.Confirmation == nil || v.Modal.Confirmation.Title != "扶養届けの確認" {
		t.Fatalf("confirmation = %+v", v.Modal.Confirmation)
	}
	if v.Form.Phase != "confirm_pending" {
		t.Errorf("phase = %q, want confirm_pending", v.Form.Phase)
	}

	v = decodeScreen(t, s.do("POST", "/api/modal/confirm", token, nil))
	if v.Modal.Message == nil || v.Modal.Message.Body != "扶養届けが正常に送信されました！" {
		t.Fatalf("message = %+v", v.Modal.Message)
	}

	v = decodeScreen(t, s.do("POST", "/api/modal/close", token, nil))
	if v.Modal.Message != nil {
		t.Error("message should be closed")
	}
	if val, _ := v.field("dependentReason"); val != "" {
		t.Errorf("form should reset after the result is closed, reason = %q", val)
	}

	w = s.do("POST", "/api/modal/close", token, nil)
	if w.Code != http.StatusConflict || decodeError(t, w).Error.Code != "NO_PENDING_MODAL" {
		t.Errorf("second close status = %d", w.Code)
	}
}

func TestInputFields_unknownField(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	decodeScreen(t, s.do("PUT", "/api/workflow", token, map[string]string{"workflow_id": request.AttendanceID}))

	w := s.do("PATCH", "/api/form/fields", token, map[string]any{
		"fields": []map[string]string{{"id": "nope", "value": "x"}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != "UNKNOWN_FIELD" {
		t.Errorf("code = %q, want UNKNOWN_FIELD", resp.Error.Code)
	}
}

func TestUploadFiles(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	decodeScreen(t, s.do("PUT", "/api/workflow", token, map[string]string{"workflow_id": request.CertificateID}))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="files"; filename="申請書.pdf"`)
	h.Set("Content-Type", "application/pdf")
	part, _ := mw.CreatePart(h)
	part.Write([]byte("%PDF-1.4 test"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/form/files/certificateFile", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: s.cookie, Value: token})
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	v := decodeScreen(t, w)
	for _, f := range v.Form.Fields {
		if f.ID != "certificateFile" {
			continue
		}
		if len(f.Files) != 1 || f.Files[0].Name != "申請書.pdf" || f.Files[0].Size != 13 || f.Files[0].ContentType != "application/pdf" {
			t.Errorf("files = %+v", f.Files)
		}
		return
	}
	t.Error("certificateFile not in view")
}

func TestAddRoute_limit(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	decodeScreen(t, s.do("PUT", "/api/workflow", token, map[string]string{"workflow_id": request.SubscriptionID}))

	for i := 0; i < 3; i++ {
		decodeScreen(t, s.do("POST", "/api/form/routes", token, nil))
	}
	w := s.do("POST", "/api/form/routes", token, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != "ROUTE_LIMIT" || resp.Error.Message != request.RouteLimitMessage {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestSearchAddress(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	decodeScreen(t, s.do("PUT", "/api/workflow", token, map[string]string{"workflow_id": request.AddressChangeID}))

	decodeScreen(t, s.do("PATCH", "/api/form/fields", token, map[string]any{
		"fields": []map[string]string{{"id": "postalCode", "value": "100-0001"}},
	}))
	v := decodeScreen(t, s.do("POST", "/api/form/address-search", token, nil))
	if val, _ := v.field("newAddress"); val != "東京都千代田区千代田" {
		t.Errorf("newAddress = %q", val)
	}
	if val, _ := v.field("postalCode"); val != "1000001" {
		t.Errorf("postalCode = %q, want the normalized code", val)
	}

	decodeScreen(t, s.do("PATCH", "/api/form/fields", token, map[string]any{
		"fields": []map[string]string{{"id": "postalCode", "value": "9999999"}},
	}))
	v = decodeScreen(t, s.do("POST", "/api/form/address-search", token, nil))
	if v.Modal.Message == nil || v.Modal.Message.Title != "検索失敗" || !v.Modal.Message.IsError {
		t.Errorf("message = %+v", v.Modal.Message)
	}
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	v := decodeScreen(t, s.do("DELETE", "/api/session", token, nil))
	if v.Modal.Confirmation == nil || v.Modal.Confirmation.Title != screen.LogoutTitle {
		t.Fatalf("confirmation = %+v", v.Modal.Confirmation)
	}

	v = decodeScreen(t, s.do("POST", "/api/modal/cancel", token, nil))
	if v.Screen != "workflow" || v.Modal.Confirmation != nil {
		t.Errorf("cancel should keep the session, got %+v", v)
	}

	decodeScreen(t, s.do("DELETE", "/api/session", token, nil))
	w := s.do("POST", "/api/modal/confirm", token, nil)
	if v := decodeScreen(t, w); v.Screen != "login" {
		t.Errorf("screen = %q, want login", v.Screen)
	}
	if c := s.sessionCookie(w); c == nil || c.MaxAge >= 0 {
		t.Error("logout should clear the cookie")
	}
	if s.store.Len() != 0 {
		t.Errorf("store has %d sessions, want 0", s.store.Len())
	}

	if w := s.do("POST", "/api/form/submit", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("old token status = %d, want 401", w.Code)
	}
}
