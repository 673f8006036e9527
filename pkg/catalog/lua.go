package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shopify/go-lua"

	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/log"
)

// LuaMatcher evaluates step matches with a sandboxed Lua script, for flows
// whose matching logic outgrows rule tables. The script body runs with
// step, tool, input, and context in scope and returns a boolean. Scripts
// are compiled to bytecode once; states are pooled across calls
type LuaMatcher struct {
	pool     chan *lua.State
	bytecode []byte
}

const (
	luaPoolSize         = 4
	luaGlobalTableIndex = -2
	luaTableIndex       = -3

	luaPrelude = `local step = select(1, ...)
local tool = select(2, ...)
local input = select(3, ...)
local context = select(4, ...)
`
)

var (
	ErrLuaCompile = errors.New("lua matcher compile error")

	luaExclude = [...]string{
		"io", "os", "debug", "package", "require", "dofile", "loadfile",
		"load",
	}
)

// NewLuaMatcher compiles a matcher script. Compilation failures surface
// here so a bad script fails at registration, not at match time
func NewLuaMatcher(src string) (*LuaMatcher, error) {
	l := lua.NewState()
	sandbox(l)

	if err := lua.LoadString(l, luaPrelude+src); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaCompile, err)
	}
	var buf bytes.Buffer
	if err := l.Dump(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaCompile, err)
	}

	return &LuaMatcher{
		pool:     make(chan *lua.State, luaPoolSize),
		bytecode: buf.Bytes(),
	}, nil
}

// MustLuaMatcher compiles a matcher script and panics on error. Intended
// for the static scripts of built-in flows
func MustLuaMatcher(src string) *LuaMatcher {
	m, err := NewLuaMatcher(src)
	if err != nil {
		panic(err)
	}
	return m
}

// MatchStep runs the script against an observed action. Any load or
// runtime error counts as no match
func (m *LuaMatcher) MatchStep(
	id api.StepID, act api.Action, fctx api.Context,
) bool {
	l := m.getState()
	defer m.returnState(l)

	sandbox(l)
	if err := l.Load(bytes.NewReader(m.bytecode), "matcher", "b"); err != nil {
		slog.Debug("Lua matcher failed to load", log.Error(err))
		return false
	}

	l.PushString(string(id))
	l.PushString(act.Tool)
	goToLua(l, decodeInput(act.Input))
	goToLua(l, map[string]any(fctx))

	if err := l.ProtectedCall(4, 1, 0); err != nil {
		slog.Debug("Lua matcher execution failed",
			log.StepID(id),
			log.Error(err))
		return false
	}
	res := l.ToBoolean(-1)
	l.Pop(1)
	return res
}

func (m *LuaMatcher) getState() *lua.State {
	select {
	case l := <-m.pool:
		return l
	default:
		return lua.NewState()
	}
}

func (m *LuaMatcher) returnState(l *lua.State) {
	l.SetTop(0)

	select {
	case m.pool <- l:
	default:
	}
}

func sandbox(l *lua.State) {
	lua.OpenLibraries(l)
	l.Global("_G")
	for _, name := range luaExclude {
		l.PushNil()
		l.SetField(luaGlobalTableIndex, name)
	}
	l.Pop(1)
}

func decodeInput(input json.RawMessage) any {
	if len(input) == 0 {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(input, &v); err != nil {
		return map[string]any{}
	}
	return v
}

func goToLua(l *lua.State, value any) {
	switch v := value.(type) {
	case string:
		l.PushString(v)
	case bool:
		l.PushBoolean(v)
	case int:
		l.PushInteger(v)
	case int64:
		l.PushInteger(int(v))
	case float64:
		l.PushNumber(v)
	case []any:
		pushLuaArray(l, v)
	case map[string]any:
		pushLuaMap(l, v)
	case nil:
		l.PushNil()
	default:
		l.PushString(fmt.Sprintf("%v", v))
	}
}

func pushLuaArray(l *lua.State, arr []any) {
	l.CreateTable(len(arr), 0)
	for i, item := range arr {
		l.PushInteger(i + 1)
		goToLua(l, item)
		l.SetTable(luaTableIndex)
	}
}

func pushLuaMap(l *lua.State, m map[string]any) {
	l.CreateTable(0, len(m))
	for k, val := range m {
		l.PushString(k)
		goToLua(l, val)
		l.SetTable(luaTableIndex)
	}
}
