// Package mode registers editor language modes and installs the notebook's
// language as the default mode for new code cells.
package mode

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/nbsense/internal/editor"
	"github.com/dshills/nbsense/internal/logging"
)

// ErrUnknownMode is returned when a mode has not been registered.
var ErrUnknownMode = errors.New("unknown mode")

// Mode describes an editor language mode.
type Mode struct {
	// Name is the mode identifier used in editor options.
	Name string

	// MIME is the content type the mode is registered under.
	MIME string

	// LineComment starts a single line comment.
	LineComment string

	// BlockComment holds the opening and closing block comment tokens.
	BlockComment [2]string

	// Extensions lists file extensions associated with the mode.
	Extensions []string
}

// FSharp is the built-in F# mode.
var FSharp = Mode{
	Name:         "fsharp",
	MIME:         "text/x-fsharp",
	LineComment:  "//",
	BlockComment: [2]string{"(*", "*)"},
	Extensions:   []string{".fs", ".fsi", ".fsx", ".fsscript"},
}

// Loader loads a mode by name.
type Loader interface {
	Load(ctx context.Context, name string) (Mode, error)
}

// Registry is an in-memory Loader.
type Registry struct {
	mu    sync.RWMutex
	modes map[string]Mode
}

// NewRegistry creates a registry with the built-in modes registered.
func NewRegistry() *Registry {
	r := &Registry{modes: make(map[string]Mode)}
	r.Register(FSharp)
	return r
}

// Register adds or replaces a mode.
func (r *Registry) Register(m Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[m.Name] = m
}

// Load returns the named mode.
func (r *Registry) Load(ctx context.Context, name string) (Mode, error) {
	if err := ctx.Err(); err != nil {
		return Mode{}, err
	}
	r.mu.RLock()
	m, ok := r.modes[name]
	r.mu.RUnlock()

	if !ok {
		return Mode{}, fmt.Errorf("%w: %s (registered: %s)", ErrUnknownMode, name, strings.Join(r.Names(), ", "))
	}
	return m, nil
}

// Names returns the registered mode names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modes))
	for n := range r.modes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Installer loads the language mode and makes it the editor default.
// Install runs at most once; later calls return the first outcome.
type Installer struct {
	loader   Loader
	defaults *editor.Defaults
	language string
	log      *logging.Logger

	once sync.Once
	mode Mode
	err  error
}

// NewInstaller creates an installer for language.
func NewInstaller(loader Loader, defaults *editor.Defaults, language string, log *logging.Logger) *Installer {
	if log == nil {
		log = logging.Nop()
	}
	return &Installer{
		loader:   loader,
		defaults: defaults,
		language: language,
		log:      log.WithComponent("mode"),
	}
}

// Install loads the mode and sets it as the default for new code cells.
// On a load failure the defaults are left untouched.
func (i *Installer) Install(ctx context.Context) (Mode, error) {
	i.once.Do(func() {
		m, err := i.loader.Load(ctx, i.language)
		if err != nil {
			i.err = fmt.Errorf("loading mode %s: %w", i.language, err)
			i.log.Error("%v", i.err)
			return
		}
		i.defaults.Set(editor.OptionMode, m.Name)
		i.mode = m
		i.log.Debug("default code cell mode set to %s", m.Name)
	})
	return i.mode, i.err
}
