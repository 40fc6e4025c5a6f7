package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/repository"
)

// LayerService serves the web map index and its layers
type LayerService struct {
	index models.LayerIndex
	store LayerStore
}

// NewLayerService creates a layer service over an ordered index
func NewLayerService(layers []models.LayerEntry, store LayerStore) *LayerService {
	return &LayerService{index: models.LayerIndex{Layers: layers}, store: store}
}

// Index returns the display-name → path index in display order
func (s *LayerService) Index() models.LayerIndex {
	return s.index
}

// Open streams a layer by display name or path. The caller closes the reader.
func (s *LayerService) Open(ctx context.Context, name string) (io.ReadCloser, models.LayerEntry, error) {
	entry, ok := s.index.Lookup(name)
	if !ok {
		return nil, entry, fmt.Errorf("%s: %w", name, ErrLayerNotFound)
	}
	body, size, err := s.store.Open(ctx, entry.Path)
	if err != nil {
		return nil, entry, err
	}
	entry.Bytes = size
	return body, entry, nil
}

// PublishResult summarises a publish pass
type PublishResult struct {
	Published []models.PublishedLayer `json:"published"`
	Missing   []string                `json:"missing,omitempty"`
}

// Publish copies every indexed layer from src to dst. Layers missing from
// src are skipped. Uploads are recorded in repo when it is not nil.
func (s *LayerService) Publish(ctx context.Context, src, dst LayerStore, bucket, runID string, repo *repository.PublishedLayerRepository) (*PublishResult, error) {
	res := &PublishResult{}
	for _, e := range s.index.Layers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, err := copyLayer(ctx, src, dst, e.Path)
		if errors.Is(err, ErrLayerNotFound) {
			res.Missing = append(res.Missing, e.Path)
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to publish %s: %w", e.Name, err)
		}

		pub := models.PublishedLayer{Path: e.Path, RunID: runID, Bucket: bucket, Bytes: n}
		if repo != nil {
			if err := repo.Upsert(&pub); err != nil {
				return res, err
			}
		}
		res.Published = append(res.Published, pub)
	}

	if len(res.Missing) > 0 {
		log.Printf("[Publish] Warning: %d indexed layers not found", len(res.Missing))
	}
	log.Printf("[Publish] Published %d layers to %s", len(res.Published), bucket)
	return res, nil
}

func copyLayer(ctx context.Context, src, dst LayerStore, rel string) (int64, error) {
	body, size, err := src.Open(ctx, rel)
	if err != nil {
		return 0, err
	}
	defer body.Close()
	if err := dst.Put(ctx, rel, body, size); err != nil {
		return 0, err
	}
	return size, nil
}
