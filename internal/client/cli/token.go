package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/cloudrive/internal/filex"
)

// loadToken returns the saved bearer token, or "" when there is none.
func loadToken(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// saveToken writes token readable by the current user only. An empty token
// removes the file.
func saveToken(path, token string) error {
	if path == "" {
		return nil
	}
	if token == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	if _, err := filex.EnsureDir(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return filex.WriteFileAtomic(path, []byte(token), 0o600)
}
