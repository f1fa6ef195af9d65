package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"gigfin/internal/log"
)

func TestHandlerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: "json", Output: &buf})

	var seen string
	h := log.Middleware(logger)(NewMiddleware(logger, func(*http.Request) string { return "198.51.100.1" }).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
			log.FromContext(r.Context()).Info("inside")
			w.WriteHeader(http.StatusTeapot)
		})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a uuid", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("header = %q, want %q", rr.Header().Get(HeaderRequestID), seen)
	}
	out := buf.String()
	if strings.Count(out, seen) != 2 {
		t.Fatalf("both log lines should carry the id: %s", out)
	}
	if !strings.Contains(out, `"status_code":418`) || !strings.Contains(out, `"level":"WARN"`) {
		t.Fatalf("completion line missing status or level: %s", out)
	}
	if !strings.Contains(out, "198.51.100.1") {
		t.Fatalf("client ip not logged: %s", out)
	}
}

func TestHandlerKeepsValidIncomingID(t *testing.T) {
	id := uuid.NewString()
	h := NewMiddleware(log.Discard(), nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, id)
	h.ServeHTTP(rr, req)
	if rr.Header().Get(HeaderRequestID) != id {
		t.Fatalf("incoming id not kept")
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "<script>")
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get(HeaderRequestID); got == "<script>" || got == "" {
		t.Fatalf("invalid incoming id should be replaced, got %q", got)
	}
}

func TestRecorder(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := NewRecorder(rr)
	if NewRecorder(rec) != rec {
		t.Fatal("recorder should not be wrapped twice")
	}
	_, _ = rec.Write([]byte("ok"))
	rec.WriteHeader(http.StatusInternalServerError)
	if rec.Status() != http.StatusOK {
		t.Fatalf("status after implicit 200 = %d", rec.Status())
	}
}
