package dependencychecker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasaeel/rasaeel/internal/healthcheck"
)

func TestChecker(t *testing.T) {
	t.Parallel()

	items := NewChecker(
		Dependency{Name: "openai", Configured: true},
		Dependency{Name: "azure_speech", Optional: true},
		Dependency{Name: "meta_app_secret"},
	).ListChecks(context.Background())

	require.Len(t, items, 3)
	assert.Equal(t, healthcheck.StatusOK, items[0].Status)
	assert.Equal(t, "dependency.configured.openai", items[0].ID)
	assert.Equal(t, healthcheck.StatusWarn, items[1].Status)
	assert.Equal(t, healthcheck.StatusError, items[2].Status)
}
