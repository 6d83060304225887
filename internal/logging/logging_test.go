package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	for _, name := range []string{"app-2024-05-10.log", "app-2024-05-04.log", "app-2024-05-03.log", "app-2024-04-01.log", "other.log", "app-garbage.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	CleanupOldLogs(dir, 7, now)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"app-2024-05-10.log", "app-2024-05-04.log", "other.log", "app-garbage.log"}, names)
}

func TestSetupWritesToFileAndConsole(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	stop, err := Setup(dir, 3, &console)
	require.NoError(t, err)

	log.Printf("hello from test")
	stop()

	assert.Contains(t, console.String(), "hello from test")
	content, err := os.ReadFile(filepath.Join(dir, "app-"+time.Now().Format(dateLayout)+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "hello from test")
	log.SetOutput(os.Stderr)
}
