// Package blob stores prompt images and hands back their public URLs.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidName = errors.New("invalid blob name")

// Store accepts a named upload and returns a publicly resolvable URL
type Store interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// ObjectName builds "{userID}-{random}.{ext}" from the uploaded file name.
// The extension is lower-cased; files without one get none.
func ObjectName(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s-%s%s", userID, uuid.New().String(), ext)
}

// validateName rejects anything that could escape the bucket/directory root
func validateName(name string) error {
	if name == "" || name != path.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func joinURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}
