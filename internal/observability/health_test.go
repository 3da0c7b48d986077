package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleHealth_returnsOK(t *testing.T) {
	origVersion, origCommit := Version, Commit
	Version = "1.2.3"
	Commit = "abc1234"
	t.Cleanup(func() {
		Version = origVersion
		Commit = origCommit
	})

	rec := httptest.NewRecorder()
	HandleHealth().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "1.2.3" || resp.Commit != "abc1234" {
		t.Errorf("response = %+v", resp)
	}
}

func serveReady(t *testing.T, checks ReadinessChecks) (int, ReadinessResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	HandleReady(checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	var resp ReadinessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return rec.Code, resp
}

func loaded() bool    { return true }
func notLoaded() bool { return false }

func TestHandleReady_requiredOnly(t *testing.T) {
	code, resp := serveReady(t, ReadinessChecks{CatalogLoaded: loaded, ContractLoaded: loaded})

	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if resp.Status != "ready" {
		t.Errorf("status = %q, want ready", resp.Status)
	}
	if len(resp.Checks) != 2 {
		t.Errorf("checks count = %d, want 2", len(resp.Checks))
	}
	for name, check := range resp.Checks {
		if check.Status != "ok" || check.LatencyMs < 0 {
			t.Errorf("%s = %+v", name, check)
		}
	}
}

func TestHandleReady_requiredFailures(t *testing.T) {
	tests := []struct {
		name   string
		checks ReadinessChecks
		failed []string
	}{
		{"catalog empty", ReadinessChecks{CatalogLoaded: notLoaded, ContractLoaded: loaded}, []string{"catalog"}},
		{"contract missing", ReadinessChecks{CatalogLoaded: loaded, ContractLoaded: notLoaded}, []string{"contract"}},
		{"nil checks", ReadinessChecks{}, []string{"catalog", "contract"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := serveReady(t, tt.checks)
			if code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503", code)
			}
			if resp.Status != "not_ready" {
				t.Errorf("status = %q, want not_ready", resp.Status)
			}
			for _, name := range tt.failed {
				if resp.Checks[name].Status != "error" || resp.Checks[name].Error == "" {
					t.Errorf("%s = %+v, want error with message", name, resp.Checks[name])
				}
			}
		})
	}
}

func TestHandleReady_optionalChecks(t *testing.T) {
	var pinged bool
	checks := ReadinessChecks{
		CatalogLoaded:  loaded,
		ContractLoaded: loaded,
		SessionStore: CheckFunc(func(ctx context.Context) error {
			pinged = true
			if _, ok := ctx.Deadline(); !ok {
				t.Error("check context should carry a deadline")
			}
			return nil
		}),
		Postal: CheckFunc(func(context.Context) error { return nil }),
	}

	code, resp := serveReady(t, checks)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if !pinged {
		t.Error("session store should have been checked")
	}
	if len(resp.Checks) != 4 {
		t.Errorf("checks count = %d, want 4", len(resp.Checks))
	}
}

func TestHandleReady_sessionStoreDown(t *testing.T) {
	checks := ReadinessChecks{
		CatalogLoaded:  loaded,
		ContractLoaded: loaded,
		SessionStore:   CheckFunc(func(context.Context) error { return errors.New("connection refused") }),
	}

	code, resp := serveReady(t, checks)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", code)
	}
	if got := resp.Checks["session_store"]; got.Status != "error" || got.Error != "connection refused" {
		t.Errorf("session_store = %+v", got)
	}
	if _, ok := resp.Checks["postal"]; ok {
		t.Error("postal should not be checked when nil")
	}
}
