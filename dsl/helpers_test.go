package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/zschema"
)

// issuesOf asserts err carries Issues and returns them.
func issuesOf(t *testing.T, err error) zschema.Issues {
	t.Helper()
	require.Error(t, err)
	iss, ok := zschema.AsIssues(err)
	require.True(t, ok, "expected Issues, got %T: %v", err, err)
	return iss
}

func pointers(iss zschema.Issues) []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Path.Pointer()
	}
	return out
}
