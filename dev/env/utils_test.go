package devenv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	path, err := ResolvePath("records.db")
	require.NoError(t, err)
	require.Equal(t, "records.db", path)

	root, err := GetWorkspaceRoot()
	require.NoError(t, err)

	path, err = ResolvePath("<dev_state>/records.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "dev", ".state", "records.db"), path)
}
