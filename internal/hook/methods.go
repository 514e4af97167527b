package hook

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/nbsense/internal/editor"
	"github.com/dshills/nbsense/internal/logging"
)

// FuncOnMethod is the global function a methods script must define.
const FuncOnMethod = "on_method"

// DefaultTimeout bounds a single on_method call.
const DefaultTimeout = 2 * time.Second

// Methods produces signature help by calling
// on_method(key_code, line_text, line, ch) in a Lua script. A string result
// becomes the signature; nil means no change.
//
// gopher-lua states are not goroutine-safe, so calls are serialized.
type Methods struct {
	name    string
	timeout time.Duration
	log     *logging.Logger

	mu     sync.Mutex
	L      *lua.LState
	closed bool
}

// Option configures a Methods hook.
type Option func(*Methods)

// WithTimeout sets the per-call timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(m *Methods) {
		m.timeout = d
	}
}

// WithLogger sets the logger used for print and errors.
func WithLogger(l *logging.Logger) Option {
	return func(m *Methods) {
		if l != nil {
			m.log = l
		}
	}
}

// LoadFile loads a methods script from path.
func LoadFile(path string, opts ...Option) (*Methods, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read methods script: %w", err)
	}
	return LoadString(path, string(src), opts...)
}

// LoadString loads a methods script from src. name is used in messages.
func LoadString(name, src string, opts ...Option) (*Methods, error) {
	m := &Methods{
		name:    name,
		timeout: DefaultTimeout,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithComponent("hook").WithField("script", name)
	m.L = newState(m.log)

	err := protect(func() error {
		fn, err := m.L.Load(strings.NewReader(src), name)
		if err != nil {
			return err
		}
		m.L.Push(fn)
		return m.L.PCall(0, lua.MultRet, nil)
	})
	if err != nil {
		m.L.Close()
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	if m.L.GetGlobal(FuncOnMethod).Type() != lua.LTFunction {
		m.L.Close()
		return nil, fmt.Errorf("load %s: %w", name, ErrNoHandler)
	}
	return m, nil
}

// Name returns the script name.
func (m *Methods) Name() string {
	return m.name
}

// OnMethod calls the script's on_method function.
func (m *Methods) OnMethod(ctx context.Context, keyCode int, line string, pos editor.Position) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrClosed
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	m.L.SetContext(ctx)
	defer m.L.RemoveContext()

	var ret lua.LValue = lua.LNil
	err := protect(func() error {
		if err := m.L.CallByParam(lua.P{
			Fn:      m.L.GetGlobal(FuncOnMethod),
			NRet:    1,
			Protect: true,
		}, lua.LNumber(keyCode), lua.LString(line), lua.LNumber(pos.Line), lua.LNumber(pos.Ch)); err != nil {
			return err
		}
		ret = m.L.Get(-1)
		m.L.Pop(1)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", FuncOnMethod, err)
	}

	switch v := ret.(type) {
	case lua.LString:
		return string(v), nil
	case *lua.LNilType:
		return "", nil
	default:
		return "", fmt.Errorf("%w: got %s", ErrBadReturn, ret.Type())
	}
}

// Close releases the Lua state.
func (m *Methods) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.L.Close()
	return nil
}
