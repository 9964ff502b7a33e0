package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/khanhnv2901/seca-recon/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Sink writes rendered documents under a single base directory.
type Sink struct {
	BaseDir string
}

// Save renders doc into name (relative to BaseDir) and returns the absolute
// path written. Names that would escape BaseDir are rejected.
func (s Sink) Save(name string, format Format, doc any) (string, error) {
	path, err := ResolveWithin(s.BaseDir, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("%w: create directory: %v", sharedErrors.ErrWriteReport, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.DefaultFilePerm)
	if err != nil {
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrWriteReport, err)
	}
	if err := Write(f, format, doc); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("%w: %s: %w", sharedErrors.ErrWriteReport, path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrWriteReport, err)
	}
	return path, nil
}

// ResolveWithin joins elems under base and rejects results outside base.
// The returned path is absolute.
func ResolveWithin(base string, elems ...string) (string, error) {
	if base == "" {
		return "", errors.New("base directory is required")
	}
	root, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}

	target := filepath.Join(append([]string{root}, elems...)...)
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", fmt.Errorf("relativize path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", sharedErrors.ErrPathEscape, target)
	}
	return target, nil
}
