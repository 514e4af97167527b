package app

import (
	"errors"
	"testing"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{"nil error", nil, ""},
		{"op only", &OperationError{Op: "annotate"}, "annotate"},
		{"op and target", &OperationError{Op: "annotate", Target: "a.ipynb"}, "annotate a.ipynb"},
		{"full chain", &OperationError{Op: "annotate", Target: "a.ipynb", Err: errors.New("disk full")}, "annotate a.ipynb: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error(): got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	err := NewOperationError("subscribe", "cell.created", ErrStopped)
	if !errors.Is(err, ErrStopped) {
		t.Error("errors.Is did not reach the wrapped error")
	}
}

func TestComponentError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ComponentError
		expected string
	}{
		{"nil", nil, ""},
		{"component only", &ComponentError{Component: "mode"}, "mode"},
		{"with action", &ComponentError{Component: "mode", Action: "install"}, "mode: install"},
		{"with error", &ComponentError{Component: "mode", Err: errors.New("boom")}, "mode: boom"},
		{"full", &ComponentError{Component: "mode", Action: "install", Err: errors.New("boom")}, "mode: install: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error(): got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorList(t *testing.T) {
	var list ErrorList
	if list.AsError() != nil {
		t.Error("empty list should be nil")
	}

	list.Add(nil)
	list.Add(NewComponentError("chrome", "swap logo", ErrNoImage))
	list.Add(errors.New("second"))

	if list.Len() != 2 {
		t.Errorf("Len: got %d, want 2", list.Len())
	}
	err := list.AsError()
	if !errors.Is(err, ErrNoImage) {
		t.Error("errors.Is did not find ErrNoImage")
	}
	if got := err.Error(); got != "2 errors: first: chrome: swap logo: no image matches selector" {
		t.Errorf("Error(): got %q", got)
	}
}

func TestSwapLogo(t *testing.T) {
	c := NewMemoryChrome(".container img")

	if err := SwapLogo(c, ".container img", "/logo.png", nil); err != nil {
		t.Fatalf("SwapLogo: %v", err)
	}
	if src, _ := c.ImageSource(".container img"); src != "/logo.png" {
		t.Errorf("source: got %q", src)
	}
	if err := SwapLogo(c, ".header img", "/logo.png", nil); !errors.Is(err, ErrNoImage) {
		t.Errorf("unknown selector: got %v, want ErrNoImage", err)
	}
	if err := SwapLogo(nil, ".container img", "/logo.png", nil); !errors.Is(err, ErrComponentNotAvailable) {
		t.Errorf("nil chrome: got %v, want ErrComponentNotAvailable", err)
	}
}
