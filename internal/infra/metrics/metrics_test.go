package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CountersRegistered(t *testing.T) {
	m := New()

	m.Updates.WithLabelValues("start").Inc()
	m.Submissions.WithLabelValues("photo").Add(2)
	m.UploadFailures.Inc()
	m.DuplicateUpdates.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Updates.WithLabelValues("start")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues("photo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadFailures))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"signbot_updates_total", "signbot_submissions_total", "signbot_upload_failures_total", "signbot_duplicate_updates_total", "go_goroutines"} {
		assert.True(t, names[want], want)
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.UploadFailures.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.UploadFailures))
}
