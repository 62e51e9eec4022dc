// Package vault implements pkm.Vault over a local directory, S3 and memory.
package vault

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrObjectNotFound is returned by Get when no object is stored under the key.
var ErrObjectNotFound = errors.New("object not found")

// checkKey rejects keys that could escape the vault root.
func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("invalid vault key %q", key)
	}
	if path.Clean(key) != key {
		return fmt.Errorf("invalid vault key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." {
			return fmt.Errorf("invalid vault key %q", key)
		}
	}
	return nil
}
