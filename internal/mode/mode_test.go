package mode

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/nbsense/internal/editor"
)

type countingLoader struct {
	inner Loader
	calls int
}

func (l *countingLoader) Load(ctx context.Context, name string) (Mode, error) {
	l.calls++
	return l.inner.Load(ctx, name)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	m, err := r.Load(context.Background(), "fsharp")
	if err != nil {
		t.Fatalf("Load(fsharp): %v", err)
	}
	if diff := cmp.Diff(FSharp, m); diff != "" {
		t.Errorf("fsharp mode mismatch (-want +got):\n%s", diff)
	}

	_, err = r.Load(context.Background(), "cobol")
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Load(cobol): got %v, want ErrUnknownMode", err)
	}
	if err != nil && !strings.Contains(err.Error(), "registered: fsharp") {
		t.Errorf("Load(cobol) error should list registered modes: %v", err)
	}

	r.Register(Mode{Name: "csharp", MIME: "text/x-csharp"})
	if got := r.Names(); !cmp.Equal(got, []string{"csharp", "fsharp"}) {
		t.Errorf("Names: got %v", got)
	}
}

func TestRegistry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewRegistry().Load(ctx, "fsharp"); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestInstaller_SetsDefaultOnce(t *testing.T) {
	loader := &countingLoader{inner: NewRegistry()}
	defaults := editor.NewDefaults()
	inst := NewInstaller(loader, defaults, "fsharp", nil)

	for i := 0; i < 3; i++ {
		m, err := inst.Install(context.Background())
		if err != nil {
			t.Fatalf("Install #%d: %v", i, err)
		}
		if m.Name != "fsharp" {
			t.Errorf("Install #%d mode: got %q", i, m.Name)
		}
	}

	if loader.calls != 1 {
		t.Errorf("loader called %d times, want 1", loader.calls)
	}
	if defaults.Mode() != "fsharp" {
		t.Errorf("default mode: got %q, want fsharp", defaults.Mode())
	}

	ed := editor.MemoryFactory{Defaults: defaults}.New("let x = 1")
	if ed.Option(editor.OptionMode) != "fsharp" {
		t.Errorf("new editor did not inherit mode: %v", ed.Option(editor.OptionMode))
	}
}

func TestInstaller_LoadFailureLeavesDefaults(t *testing.T) {
	defaults := editor.NewDefaults()
	defaults.Set(editor.OptionMode, "text")
	inst := NewInstaller(NewRegistry(), defaults, "ocaml", nil)

	_, err := inst.Install(context.Background())
	if !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("got %v, want ErrUnknownMode", err)
	}
	if defaults.Mode() != "text" {
		t.Errorf("defaults changed on failure: %q", defaults.Mode())
	}

	// The failure is sticky for the session.
	if _, err2 := inst.Install(context.Background()); !errors.Is(err2, ErrUnknownMode) {
		t.Errorf("second Install: got %v", err2)
	}
}
