package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_ReverseOrder(t *testing.T) {
	h := NewHandler(5*time.Second, quietLogger())

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"listener", "acceptor", "admin"} {
		name := name
		h.OnShutdown(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	h.Trigger("test")
	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	want := []string{"admin", "acceptor", "listener"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done() should be closed after Wait returns")
	}
}

func TestHandler_HookErrorsJoined(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := false
	h.OnShutdown("last", func(context.Context) error {
		ran = true
		return nil
	})
	h.OnShutdown("b", func(context.Context) error { return errB })
	h.OnShutdown("a", func(context.Context) error { return errA })

	h.Trigger("test")
	err := h.Wait(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Wait() error = %v, want both hook errors", err)
	}
	if !ran {
		t.Error("hooks after a failing hook should still run")
	}
}

func TestHandler_HooksShareDeadline(t *testing.T) {
	h := NewHandler(50*time.Millisecond, quietLogger())

	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	h.Trigger("test")
	start := time.Now()
	err := h.Wait(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("hook context should expire after the handler timeout")
	}
}

func TestHandler_ContextCancel(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())
	called := false
	h.OnShutdown("hook", func(context.Context) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !called {
		t.Error("cancelling the context should run the hooks")
	}
}

func TestHandler_TriggerTwice(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())
	h.Trigger("first")
	h.Trigger("second")

	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}
