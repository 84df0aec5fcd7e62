package repository

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"net/url"
	"sort"

	"github.com/zedarvates/storycore-grid/internal/storage"
	"github.com/zedarvates/storycore-grid/pkg/validation"
)

// panelRepository dispatches each source to the fetcher registered for its scheme
type panelRepository struct {
	fetchers  map[string]storage.ImageFetcher
	validator *validation.SourceValidator
}

// NewPanelRepository creates a repository over fetchers keyed by URL scheme
// (http, https, file, azblob). Nil fetchers are ignored.
func NewPanelRepository(fetchers map[string]storage.ImageFetcher) PanelRepository {
	registered := make(map[string]storage.ImageFetcher, len(fetchers))
	for scheme, f := range fetchers {
		if f != nil {
			registered[scheme] = f
		}
	}
	return &panelRepository{
		fetchers:  registered,
		validator: validation.NewSourceValidator(),
	}
}

func (r *panelRepository) ValidatePanelSource(source string) error {
	return r.validator.ValidatePanelSource(source)
}

func (r *panelRepository) Schemes() []string {
	out := make([]string, 0, len(r.fetchers))
	for s := range r.fetchers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (r *panelRepository) FetchPanel(ctx context.Context, source string) (image.Image, error) {
	if err := r.validator.ValidatePanelSource(source); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPanelSource, err)
	}
	parsed, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPanelSource, err)
	}

	fetcher, ok := r.fetchers[parsed.Scheme]
	if !ok {
		return nil, fmt.Errorf("%w: no fetcher configured for %s sources", ErrSourceUnavailable, parsed.Scheme)
	}

	img, err := fetcher.FetchImage(ctx, source)
	if err != nil {
		if storage.IsNotFound(err) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrPanelNotFound, err)
		}
		return nil, err
	}
	return img, nil
}
