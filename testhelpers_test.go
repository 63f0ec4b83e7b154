package audiostash

import (
	"os"
	"path/filepath"
	"testing"
)

func cleanupTempDir(t *testing.T, path string) {
	t.Helper()
	if err := os.RemoveAll(path); err != nil {
		t.Fatalf("failed to remove temp dir: %v", err)
	}
}

// writeAudioFixture creates a small file standing in for an audio recording
func writeAudioFixture(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
