package importer

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// CalculateFileHash computes SHA-256 hash of a file
func CalculateFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", errors.Wrap(err, "failed to hash file")
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// CalculateFileHashes hashes each file and folds the results, keyed by file
// name, into one dataset fingerprint
func CalculateFileHashes(paths ...string) (fingerprint string, hashes map[string]string, err error) {
	hashes = make(map[string]string, len(paths))
	combined := sha256.New()

	for _, path := range paths {
		h, err := CalculateFileHash(path)
		if err != nil {
			return "", nil, errors.Wrapf(err, "%s", filepath.Base(path))
		}
		name := filepath.Base(path)
		hashes[name] = h
		fmt.Fprintf(combined, "%s=%s\n", name, h)
	}

	return fmt.Sprintf("%x", combined.Sum(nil)), hashes, nil
}
