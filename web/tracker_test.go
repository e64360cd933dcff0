package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostHogTrackerWithoutKey(t *testing.T) {
	tracker, err := NewPostHogTracker("", "https://eu.i.posthog.com")
	require.NoError(t, err)

	assert.IsType(t, NopTracker{}, tracker)
	assert.NoError(t, tracker.Close())
}

func TestPostHogTracker(t *testing.T) {
	tracker, err := NewPostHogTracker("phc_test", "http://127.0.0.1:1")
	require.NoError(t, err)
	require.IsType(t, &PostHogTracker{}, tracker)

	tracker.Track("127.0.0.1", "company_search", map[string]any{"mode": "name"})
	assert.NoError(t, tracker.Close())
}
