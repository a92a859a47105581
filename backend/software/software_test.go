package software

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/texstream"
	"github.com/gogpu/texstream/backend"
	"github.com/gogpu/texstream/internal/budget"
)

func ramp(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i)
	}
	return p
}

func TestRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.NameSoftware) {
		t.Fatal("software backend is not registered")
	}
	b, err := backend.Get(backend.NameSoftware)
	if err != nil {
		t.Fatalf("Get(software) error = %v", err)
	}
	if _, ok := b.(*Backend); !ok {
		t.Errorf("Get(software) = %T, want *Backend", b)
	}
}

func TestNewTexture(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		format  texstream.PixelFormat
		wantLen int
		wantErr bool
	}{
		{"rgba", 4, 3, texstream.FormatRGBA8, 48, false},
		{"r8", 5, 2, texstream.FormatR8, 10, false},
		{"rgba16f", 2, 2, texstream.FormatRGBA16F, 32, false},
		{"zero width", 0, 2, texstream.FormatRGBA8, 0, true},
		{"unknown format", 2, 2, texstream.FormatUnknown, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex, err := NewTexture(tt.w, tt.h, tt.format)
			if tt.wantErr {
				if err == nil {
					t.Error("NewTexture() error = nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTexture() error = %v", err)
			}
			if len(tex.Pix) != tt.wantLen {
				t.Errorf("len(Pix) = %d, want %d", len(tex.Pix), tt.wantLen)
			}
		})
	}
}

func TestCopyRows(t *testing.T) {
	b := New()
	ref, err := b.CreateCacheTexture(2, 4, texstream.FormatRGBA8, false)
	if err != nil {
		t.Fatal(err)
	}
	data := ramp(2 * 4 * 4)
	entry := b.CopyEntryPoint()

	if err := b.SubmitRowRange(ref, data, 0, 3); err != nil {
		t.Fatalf("SubmitRowRange(0,3) error = %v", err)
	}
	if !b.Pending(ref) {
		t.Error("Pending() = false after submit")
	}
	if got := b.QueryRowsWritten(ref); got != 0 {
		t.Errorf("QueryRowsWritten before copy = %d, want 0", got)
	}

	entry(ref)
	if got := b.QueryRowsWritten(ref); got != 3 {
		t.Errorf("QueryRowsWritten = %d, want 3", got)
	}
	if !bytes.Equal(b.Pixels(ref)[:24], data[:24]) {
		t.Error("rows 0-2 not copied")
	}
	if !bytes.Equal(b.Pixels(ref)[24:], make([]byte, 8)) {
		t.Error("row 3 written early")
	}

	// A second run without a new range does nothing.
	entry(ref)
	if got := b.ConsumedRows(ref); got != 3 {
		t.Errorf("ConsumedRows = %d, want 3", got)
	}

	if err := b.SubmitRowRange(ref, data, 3, 1); err != nil {
		t.Fatal(err)
	}
	entry(ref)
	if !bytes.Equal(b.Pixels(ref), data) {
		t.Error("texture does not match payload")
	}
	if got := b.ConsumedRows(ref); got != 4 {
		t.Errorf("ConsumedRows = %d, want 4", got)
	}
}

func TestSubmitRowRangeResetsOnRowZero(t *testing.T) {
	b := New()
	ref, _ := b.CreateCacheTexture(1, 2, texstream.FormatR8, false)
	entry := b.CopyEntryPoint()

	_ = b.SubmitRowRange(ref, []byte{1, 2}, 0, 2)
	entry(ref)
	if got := b.QueryRowsWritten(ref); got != 2 {
		t.Fatalf("QueryRowsWritten = %d, want 2", got)
	}

	if err := b.SubmitRowRange(ref, []byte{3, 4}, 0, 1); err != nil {
		t.Fatal(err)
	}
	if got := b.QueryRowsWritten(ref); got != 0 {
		t.Errorf("QueryRowsWritten after restart = %d, want 0", got)
	}
}

func TestSubmitRowRangeErrors(t *testing.T) {
	b := New()
	ref, _ := b.CreateCacheTexture(2, 2, texstream.FormatR8, false)
	data := []byte{1, 2, 3, 4}

	tests := []struct {
		name  string
		ref   texstream.NativeRef
		data  []byte
		start int
		count int
		want  error
	}{
		{"unknown ref", 99, data, 0, 1, ErrUnknownRef},
		{"past end", ref, data, 1, 2, ErrInvalidRange},
		{"zero count", ref, data, 0, 0, ErrInvalidRange},
		{"short data", ref, data[:3], 0, 1, ErrInvalidRange},
		{"gap", ref, data, 1, 1, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.SubmitRowRange(tt.ref, tt.data, tt.start, tt.count)
			if !errors.Is(err, tt.want) {
				t.Errorf("SubmitRowRange() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWrapExisting(t *testing.T) {
	b := New()
	tex, _ := NewTexture(2, 1, texstream.FormatR8)

	if _, err := b.CreateCacheTextureFromExisting(tex, 3, 1, texstream.FormatR8); !errors.Is(err, ErrExistingMismatch) {
		t.Errorf("size mismatch error = %v, want ErrExistingMismatch", err)
	}
	if _, err := b.CreateCacheTextureFromExisting("texture", 2, 1, texstream.FormatR8); !errors.Is(err, ErrExistingMismatch) {
		t.Errorf("type mismatch error = %v, want ErrExistingMismatch", err)
	}

	ref, err := b.CreateCacheTextureFromExisting(tex, 2, 1, texstream.FormatR8)
	if err != nil {
		t.Fatal(err)
	}
	if got := b.BackendTextureHandle(ref); got != tex {
		t.Errorf("BackendTextureHandle() = %v, want wrapped texture", got)
	}

	_ = b.SubmitRowRange(ref, []byte{7, 8}, 0, 1)
	b.CopyEntryPoint()(ref)
	b.DestroyCache(ref)

	if !bytes.Equal(tex.Pix, []byte{7, 8}) {
		t.Errorf("wrapped texture = %v, want [7 8]", tex.Pix)
	}
	if b.Live() != 0 {
		t.Errorf("Live() = %d after destroy", b.Live())
	}
}

func TestLazyStorage(t *testing.T) {
	b := New(WithLazyStorage())
	ref, err := b.CreateCacheTexture(1, 1, texstream.FormatRGBA8, false)
	if err != nil {
		t.Fatal(err)
	}
	if h := b.BackendTextureHandle(ref); h != nil {
		t.Fatalf("BackendTextureHandle() before copy = %v, want nil", h)
	}

	_ = b.SubmitRowRange(ref, []byte{1, 2, 3, 4}, 0, 1)
	b.CopyEntryPoint()(ref)

	if _, ok := b.BackendTextureHandle(ref).(*Texture); !ok {
		t.Error("BackendTextureHandle() after copy is not a *Texture")
	}
}

func TestBudget(t *testing.T) {
	b := New(WithBudgetMB(1))

	ref, err := b.CreateCacheTexture(512, 256, texstream.FormatRGBA8, false)
	if err != nil {
		t.Fatalf("half-budget texture error = %v", err)
	}
	if _, err := b.CreateCacheTexture(512, 512, texstream.FormatRGBA8, false); !errors.Is(err, budget.ErrBudgetExceeded) {
		t.Errorf("over-budget error = %v, want ErrBudgetExceeded", err)
	}
	if got := b.Memory().Reservations; got != 1 {
		t.Errorf("Reservations = %d, want 1", got)
	}

	b.DestroyCache(ref)
	if got := b.Memory().UsedBytes; got != 0 {
		t.Errorf("UsedBytes after destroy = %d, want 0", got)
	}
}

func TestTestHooks(t *testing.T) {
	b := New()
	boom := errors.New("boom")

	b.FailNextAllocation(boom)
	if _, err := b.CreateCacheTexture(1, 1, texstream.FormatR8, false); !errors.Is(err, boom) {
		t.Errorf("CreateCacheTexture() error = %v, want injected failure", err)
	}
	ref, err := b.CreateCacheTexture(1, 1, texstream.FormatR8, false)
	if err != nil {
		t.Fatalf("failure was not one-shot: %v", err)
	}

	b.InjectRowsWritten(ref, -5)
	if got := b.QueryRowsWritten(ref); got != -5 {
		t.Errorf("QueryRowsWritten() = %d, want -5", got)
	}
	if got := b.QueryRowsWritten(12345); got != RowsUnknownRef {
		t.Errorf("QueryRowsWritten(unknown) = %d, want %d", got, RowsUnknownRef)
	}
}
