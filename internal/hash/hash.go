// # internal/hash/hash.go
package hash

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Content returns the digest of a file's bytes. The digest is the cache key
// and change-detection signal, so it must depend on content only, never on
// mtime or path.
func Content(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// File hashes a file by streaming its content.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
