package chi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/rag"
)

type mockRunner struct {
	result rag.Result
	gotQ   string
	gotK   int
}

func (m *mockRunner) Run(_ context.Context, query string, k int) rag.Result {
	m.gotQ = query
	m.gotK = k
	return m.result
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func newTestRouter(runner QueryRunner, pinger Pinger) http.Handler {
	r := chirouter.NewRouter()
	NewServer(runner, pinger, zap.NewNop()).Routes(r)
	return r
}

func TestHandleQuery(t *testing.T) {
	runner := &mockRunner{result: rag.Result{Response: "resposta", IsRelevant: true}}
	router := newTestRouter(runner, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/query",
		strings.NewReader(`{"query":"O plano cobre exames?","k":3}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if runner.gotQ != "O plano cobre exames?" || runner.gotK != 3 {
		t.Errorf("pipeline received query=%q k=%d", runner.gotQ, runner.gotK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"answer":"resposta"`) || !strings.Contains(body, `"is_relevant":true`) {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestHandleQuery_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"query":`},
		{"missing query", `{}`},
		{"blank query", `{"query":"   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&mockRunner{}, nil)
			req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		pinger     Pinger
		wantStatus int
	}{
		{"store reachable", &mockPinger{}, http.StatusOK},
		{"store down", &mockPinger{err: errors.New("refused")}, http.StatusServiceUnavailable},
		{"no pinger wired", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&mockRunner{}, tt.pinger)
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	router := newTestRouter(&mockRunner{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
