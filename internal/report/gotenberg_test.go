package report

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRenderHTMLPostsMultipart(t *testing.T) {
	var gotHTML, gotPaper string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/forms/chromium/convert/html" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		f, _, err := r.FormFile("files")
		if err != nil {
			t.Errorf("files part: %v", err)
			return
		}
		b, _ := io.ReadAll(f)
		gotHTML = string(b)
		gotPaper = r.FormValue("paperWidth")
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 fake"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", WithTimeout(5*time.Second))
	pdf, err := c.RenderHTML(context.Background(), []byte("<h1>INVOICE</h1>"))
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Fatalf("unexpected body %q", pdf)
	}
	if gotHTML != "<h1>INVOICE</h1>" {
		t.Fatalf("html part = %q", gotHTML)
	}
	if gotPaper != "8.27" {
		t.Fatalf("paperWidth = %q", gotPaper)
	}
}

func TestRenderHTMLStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":"up"}`))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient("")
	if c.Configured() {
		t.Fatal("empty url should not be configured")
	}
	if _, err := c.RenderHTML(context.Background(), nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := c.Ping(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
