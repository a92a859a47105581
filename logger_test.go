package texstream

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestNopHandler_Enabled(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("nopHandler.Enabled(%v) = true, want false", level)
		}
	}
}

func TestNopHandler_Handle(t *testing.T) {
	h := nopHandler{}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("nopHandler.Handle() = %v, want nil", err)
	}
}

func TestNopHandler_WithAttrs(t *testing.T) {
	h := nopHandler{}
	got := h.WithAttrs([]slog.Attr{slog.String("key", "val")})
	if _, ok := got.(nopHandler); !ok {
		t.Errorf("nopHandler.WithAttrs() returned %T, want nopHandler", got)
	}
}

func TestNopHandler_WithGroup(t *testing.T) {
	h := nopHandler{}
	got := h.WithGroup("group")
	if _, ok := got.(nopHandler); !ok {
		t.Errorf("nopHandler.WithGroup() returned %T, want nopHandler", got)
	}
}

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger should not be enabled for %v", level)
		}
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	SetLogger(custom)

	got := Logger()
	if got != custom {
		t.Error("Logger() did not return the custom logger set via SetLogger")
	}

	got.Info("test message", "key", "value")
	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("expected log output to contain 'test message', got: %s", buf.String())
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)

	l := Logger()
	if l == nil {
		t.Fatal("SetLogger(nil) should set nop logger, not nil")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should produce a disabled logger")
	}
}

// lifecycleBackend is a minimal in-package backend for log assertions.
type lifecycleBackend struct {
	next    NativeRef
	written map[NativeRef]int
	pending map[NativeRef]int
}

func newLifecycleBackend() *lifecycleBackend {
	return &lifecycleBackend{written: map[NativeRef]int{}, pending: map[NativeRef]int{}}
}

func (b *lifecycleBackend) CreateCacheTexture(int, int, PixelFormat, bool) (NativeRef, error) {
	b.next++
	return b.next, nil
}

func (b *lifecycleBackend) CreateCacheTextureFromExisting(any, int, int, PixelFormat) (NativeRef, error) {
	b.next++
	return b.next, nil
}

func (b *lifecycleBackend) DestroyCache(ref NativeRef) { delete(b.written, ref) }

func (b *lifecycleBackend) SubmitRowRange(ref NativeRef, _ []byte, start, count int) error {
	b.pending[ref] = start + count
	return nil
}

func (b *lifecycleBackend) QueryRowsWritten(ref NativeRef) int { return b.written[ref] }

func (b *lifecycleBackend) BackendTextureHandle(NativeRef) any { return nil }

func (b *lifecycleBackend) CopyEntryPoint() EntryPoint {
	return func(ref NativeRef) { b.written[ref] = b.pending[ref] }
}

func TestLifecycleLogging(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var (
		mu  sync.Mutex
		buf bytes.Buffer
	)
	SetLogger(slog.New(slog.NewTextHandler(&lockedWriter{mu: &mu, w: &buf}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	u, err := New(newLifecycleBackend())
	if err != nil {
		t.Fatal(err)
	}
	h, err := u.Allocate(2, 2, FormatR8, false)
	if err != nil {
		t.Fatal(err)
	}
	_ = u.Submit(h, make([]byte, 4), 0)
	_ = u.Tick(h)
	_ = u.Release(h)

	mu.Lock()
	out := buf.String()
	mu.Unlock()
	for _, want := range []string{"cache allocated", "pixels staged", "tick", "cache released"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
