package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--offline", "--quiet"}, args...))

	err := rootCmd.Execute()

	return out.String(), err
}

func isolate(t *testing.T, backend string) {
	t.Helper()

	dir := t.TempDir()

	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("OFFCACHE_STORAGE_BACKEND", backend)
	t.Setenv("OFFCACHE_STORAGE_PATH", filepath.Join(dir, "store"))
}

func TestCacheCommands(t *testing.T) {
	for _, backend := range []string{"sqlite", "badger"} {
		t.Run(backend, func(t *testing.T) {
			isolate(t, backend)

			out, err := run(t, "cache", "put", "students:count", "3")
			require.NoError(t, err)
			assert.Equal(t, "ok\n", out)

			// each invocation reopens the store
			out, err = run(t, "cache", "get", "students:count")
			require.NoError(t, err)
			assert.Equal(t, "3\n", out)

			out, err = run(t, "cache", "clear")
			require.NoError(t, err)
			assert.Equal(t, "ok\n", out)

			_, err = run(t, "cache", "get", "students:count")
			assert.Error(t, err)

			_, err = run(t, "cache", "put", "k", "{not json")
			assert.Error(t, err)
		})
	}
}

func TestQueueCommands(t *testing.T) {
	isolate(t, "sqlite")

	out, err := run(t, "queue", "add", `{"op":"delete","studentId":4}`)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, " ok\n"), out)

	out, err = run(t, "students", "delete", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "queued for replay")

	out, err = run(t, "queue", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `{"op":"delete","studentId":4}`)
	assert.Contains(t, out, `{"op":"delete","studentId":5}`)

	_, err = run(t, "sync")
	assert.Error(t, err, "sync needs the backend")

	out, err = run(t, "queue", "clear")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	out, err = run(t, "queue", "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestStudentsOfflineWithoutCache(t *testing.T) {
	isolate(t, "sqlite")

	_, err := run(t, "students", "list")
	assert.ErrorContains(t, err, "no cached data available offline")
}
