package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/builder"
)

func buildSingle(t *testing.T, s *builder.Step) *api.Step {
	t.Helper()
	def, err := builder.NewFlow("Wrapper").WithSteps(s).Definition()
	require.NoError(t, err)
	require.Len(t, def.Steps, 1)
	return def.Steps[0]
}

func TestNewStep(t *testing.T) {
	st := buildSingle(t, builder.NewStep("Test Step"))

	assert.Equal(t, api.StepID("test-step"), st.ID)
	assert.Equal(t, "Test Step", st.Name)
	assert.Equal(t, 0, st.Order)
	assert.False(t, st.Required)
	assert.False(t, st.Blocking)
	assert.False(t, st.Repeatable)
}

func TestStepIDDerivation(t *testing.T) {
	tests := []struct {
		name       string
		stepName   string
		expectedID api.StepID
	}{
		{"simple name", "Test", "test"},
		{"multiple words", "Test Step", "test-step"},
		{"camel case", "TestStepName", "test-step-name"},
		{"with underscores", "test_step_name", "test-step-name"},
		{"already kebab case", "test-step", "test-step"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := buildSingle(t, builder.NewStep(tt.stepName))
			assert.Equal(t, tt.expectedID, st.ID)
		})
	}
}

func TestStepWithID(t *testing.T) {
	st := buildSingle(t, builder.NewStep("Open Pull Request").WithID("open-pr"))
	assert.Equal(t, api.StepID("open-pr"), st.ID)
	assert.Equal(t, "Open Pull Request", st.Name)
}

func TestStepModifiers(t *testing.T) {
	st := buildSingle(t, builder.NewStep("Deploy").
		WithPhase("ship").
		WithCondition("has_cluster").
		Required().
		Blocking().
		Repeatable())

	assert.Equal(t, "ship", st.Phase)
	assert.Equal(t, "has_cluster", st.Condition)
	assert.True(t, st.Required)
	assert.True(t, st.Blocking)
	assert.True(t, st.Repeatable)
}

func TestStepDependsOn(t *testing.T) {
	def, err := builder.NewFlow("Pipeline").
		WithSteps(
			builder.NewStep("Build"),
			builder.NewStep("Test").DependsOn("build"),
		).
		Definition()
	require.NoError(t, err)

	st := def.Step("test")
	require.NotNil(t, st)
	assert.Equal(t, []api.StepID{"build"}, st.DependsOn)
}

func TestStepImmutability(t *testing.T) {
	base := builder.NewStep("Base")
	with := base.Required().Blocking()

	plain := buildSingle(t, base)
	marked := buildSingle(t, with)

	assert.False(t, plain.Required)
	assert.False(t, plain.Blocking)
	assert.True(t, marked.Required)
	assert.True(t, marked.Blocking)
}
