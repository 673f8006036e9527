package api_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/waypost/pkg/api"
)

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, api.SessionID("my-session"),
		api.SanitizeID(api.SessionID("My Session")))
	assert.Equal(t, api.FlowID("release-2.0"),
		api.SanitizeID(api.FlowID("Release/2.0!")))
	assert.Equal(t, api.SessionID(""),
		api.SanitizeID(api.SessionID("///")))
}

func TestNewInstanceID(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	id := api.NewInstanceID("branch-work", "session-one", ts)
	assert.True(t, strings.HasPrefix(string(id), "branch-work-"))
	assert.True(t, strings.HasSuffix(string(id), "-sess"))

	other := api.NewInstanceID("branch-work", "session-one", ts)
	assert.NotEqual(t, id, other)
}

func TestNewInstanceIDShortSession(t *testing.T) {
	ts := time.Now()
	id := api.NewInstanceID("release", "s1", ts)
	assert.True(t, strings.HasSuffix(string(id), "-s1"))

	anon := api.NewInstanceID("release", "", ts)
	assert.True(t, strings.HasSuffix(string(anon), "-anon"))
}
