package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"gigfin/internal/log"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func bufferLogger(w *syncBuffer) *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(w, nil)})
}

func TestGracefulShutdownCancelIsQuiet(t *testing.T) {
	var out syncBuffer
	ctx, cancel := GracefulShutdown(context.Background(), bufferLogger(&out))
	cancel()
	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)

	if strings.Contains(out.String(), "Shutdown signal received") {
		t.Fatalf("normal cancel logged a signal: %s", out.String())
	}
}

func TestGracefulShutdownOnSignal(t *testing.T) {
	var out syncBuffer
	ctx, cancel := GracefulShutdown(context.Background(), bufferLogger(&out))
	defer cancel()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
	if !strings.Contains(out.String(), "signal=terminated") {
		t.Fatalf("expected signal log, got %q", out.String())
	}
}

func TestGracefulShutdownFollowsParent(t *testing.T) {
	parent, stop := context.WithCancel(context.Background())
	ctx, cancel := GracefulShutdown(parent, log.Discard())
	defer cancel()
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with parent")
	}
}
