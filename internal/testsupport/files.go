package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// pngSignature is the eight-byte magic that image sniffing checks for.
var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// WriteImage writes a synthetic PNG-signed file at path. The seed makes the
// content, and therefore the content hash, unique per call.
func WriteImage(t testing.TB, path, seed string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := append(append([]byte{}, pngSignature...), []byte(seed)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
