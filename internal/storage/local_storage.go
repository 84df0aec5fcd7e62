package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for file sources that resolve outside the panel root
var ErrOutsideRoot = errors.New("panel path leaves the panel root")

// LocalImageFetcher reads panels addressed as file:///path relative to a root directory
type LocalImageFetcher struct {
	root string
}

// NewLocalImageFetcher creates a fetcher confined to root
func NewLocalImageFetcher(root string) (ImageFetcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid panel root %q: %w", root, err)
	}
	if abs, err = filepath.EvalSymlinks(abs); err != nil {
		return nil, fmt.Errorf("panel root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("panel root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("panel root %q is not a directory", root)
	}
	return &LocalImageFetcher{root: abs}, nil
}

// resolve maps a file source onto a path inside the root
func (l *LocalImageFetcher) resolve(source string) (string, error) {
	rel := source
	if strings.HasPrefix(source, "file:") {
		parsed, err := url.Parse(source)
		if err != nil {
			return "", fmt.Errorf("invalid file source: %w", err)
		}
		rel = parsed.Path
	}
	full := filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	if !l.within(full) {
		return "", ErrOutsideRoot
	}
	// symlinks inside the root may still point elsewhere
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		return "", fmt.Errorf("failed to open panel: %w", err)
	}
	if !l.within(resolved) {
		return "", ErrOutsideRoot
	}
	return resolved, nil
}

func (l *LocalImageFetcher) within(path string) bool {
	return path == l.root || strings.HasPrefix(path, l.root+string(filepath.Separator))
}

func (l *LocalImageFetcher) FetchImage(ctx context.Context, source string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.resolve(source)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open panel: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
