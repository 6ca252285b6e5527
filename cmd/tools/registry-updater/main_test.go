package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealmatch-workers/pkg/registry"
)

func shippedRegistry(t *testing.T) *registry.ActivityRegistry {
	t.Helper()
	reg, err := registry.LoadRegistry(filepath.Join("..", "..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	return reg
}

func TestCheck_ShippedRegistryIsClean(t *testing.T) {
	assert.Empty(t, check(shippedRegistry(t)))
}

func TestCheck_ReportsProblems(t *testing.T) {
	reg := &registry.ActivityRegistry{Activities: []registry.Activity{{
		ID:          "broken",
		TaskType:    "broken",
		Timeout:     "soon",
		ErrorCodes:  []string{"INVALID_INPUT", "NOT_A_CODE"},
		InputSchema: map[string]interface{}{"type": 12},
	}}}

	problems := check(reg)
	assert.Contains(t, problems, "broken: missing displayName")
	assert.Contains(t, problems, "broken: missing category")
	assert.Contains(t, problems, `broken: invalid timeout "soon"`)
	assert.Contains(t, problems, "broken: unknown error code NOT_A_CODE")
	assert.Len(t, problems, 5)
}

func TestCheck_Empty(t *testing.T) {
	assert.Equal(t, []string{"registry contains no activities"}, check(&registry.ActivityRegistry{}))
}

func TestApply(t *testing.T) {
	reg := shippedRegistry(t)

	require.NoError(t, apply(reg, "calculate-match-score", "timeout", "15s"))
	a, _ := reg.Activity("calculate-match-score")
	assert.Equal(t, "15s", a.Timeout)

	require.NoError(t, apply(reg, "calculate-match-score", "retries", "1"))
	assert.Equal(t, 1, a.Retries)

	assert.Error(t, apply(reg, "calculate-match-score", "timeout", "later"))
	assert.Error(t, apply(reg, "calculate-match-score", "category", "x"))
	assert.Error(t, apply(reg, "missing", "version", "2"))
}

func TestUpdateActivity_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, saveRegistry(shippedRegistry(t), path))

	registryPath = path
	require.NoError(t, updateActivity("send-match-notification", "version", "1.1.0"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	reg, err := registry.Parse(data)
	require.NoError(t, err)
	a, ok := reg.Activity("send-match-notification")
	require.True(t, ok)
	assert.Equal(t, "1.1.0", a.Version)
	assert.NotEmpty(t, reg.LastUpdated)
}

func TestHelp_EndsWithSingleNewline(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	help()
	os.Stdout = stdout
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Usage: registry-updater <command> [flags]")
	assert.True(t, strings.HasSuffix(string(out), "activity-registry.json\n"), "got %q", out)
	assert.False(t, strings.HasSuffix(string(out), "\n\n"))
}
