// Package hook runs user Lua scripts that extend intellisense behavior.
//
// Scripts execute in a restricted gopher-lua state: only the base, table,
// string and math libraries are opened, and every code loader in the base
// library is removed. There is no io, os, package or debug access. print is
// routed to the hook logger.
package hook

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/nbsense/internal/logging"
)

// unsafeGlobals are base library functions that load code from disk, strings
// or modules.
var unsafeGlobals = []string{"dofile", "loadfile", "load", "loadstring", "require", "module"}

func newState(log *logging.Logger) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		log.Info("%s", strings.Join(parts, "\t"))
		return 0
	}))
	return L
}

// protect runs fn and turns a panic inside the interpreter into an error.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
