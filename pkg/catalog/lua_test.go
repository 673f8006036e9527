package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/catalog"
)

func TestLuaMatcher(t *testing.T) {
	m, err := catalog.NewLuaMatcher(`
if tool ~= "bash" then
  return false
end
local cmd = input.command or ""
if step == "deploy" and context.approved then
  return cmd:find("kubectl apply", 1, true) ~= nil
end
return false
`)
	require.NoError(t, err)

	act := bashAction("kubectl apply -f deploy.yaml")

	t.Run("matches with truthy context", func(t *testing.T) {
		assert.True(t, m.MatchStep("deploy", act,
			api.Context{"approved": true}))
	})

	t.Run("context gates the match", func(t *testing.T) {
		assert.False(t, m.MatchStep("deploy", act, api.Context{}))
		assert.False(t, m.MatchStep("deploy", act, nil))
	})

	t.Run("step and tool gate the match", func(t *testing.T) {
		assert.False(t, m.MatchStep("verify", act,
			api.Context{"approved": true}))
		assert.False(t, m.MatchStep("deploy",
			api.NewAction("edit", map[string]any{"command": "kubectl apply"}),
			api.Context{"approved": true}))
	})

	t.Run("reusable across calls", func(t *testing.T) {
		for range 8 {
			assert.True(t, m.MatchStep("deploy", act,
				api.Context{"approved": true}))
		}
	})
}

func TestLuaMatcherCompileError(t *testing.T) {
	_, err := catalog.NewLuaMatcher("if then end")
	assert.ErrorIs(t, err, catalog.ErrLuaCompile)
}

func TestLuaMatcherRuntimeErrorIsNoMatch(t *testing.T) {
	m, err := catalog.NewLuaMatcher(`return input.missing.field`)
	require.NoError(t, err)

	assert.False(t, m.MatchStep("any",
		api.NewAction("bash", map[string]any{}), nil))
}

func TestLuaMatcherNonObjectInput(t *testing.T) {
	m, err := catalog.NewLuaMatcher(`return tool == "noop"`)
	require.NoError(t, err)

	assert.True(t, m.MatchStep("any", api.NewAction("noop", "bare string"),
		nil))
}
