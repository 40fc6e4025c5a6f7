package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
)

// PublishedLayerRepository tracks layers uploaded to object storage
type PublishedLayerRepository struct {
	db *sql.DB
}

// NewPublishedLayerRepository creates a new published-layer repository
func NewPublishedLayerRepository(db *sql.DB) *PublishedLayerRepository {
	return &PublishedLayerRepository{db: db}
}

// Upsert records an upload, replacing any earlier record of the same path
func (r *PublishedLayerRepository) Upsert(layer *models.PublishedLayer) error {
	if layer.PublishedAt == 0 {
		layer.PublishedAt = time.Now().Unix()
	}
	query := `
		INSERT INTO published_layers (path, run_id, bucket, bytes, published_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			run_id = excluded.run_id,
			bucket = excluded.bucket,
			bytes = excluded.bytes,
			published_at = excluded.published_at
	`
	_, err := r.db.Exec(query, layer.Path, layer.RunID, layer.Bucket, layer.Bytes, layer.PublishedAt)
	if err != nil {
		return fmt.Errorf("failed to record published layer: %w", err)
	}
	return nil
}

// List returns every published layer ordered by path
func (r *PublishedLayerRepository) List() ([]*models.PublishedLayer, error) {
	rows, err := r.db.Query(`SELECT path, run_id, bucket, bytes, published_at FROM published_layers ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list published layers: %w", err)
	}
	defer rows.Close()

	layers := []*models.PublishedLayer{}
	for rows.Next() {
		l := &models.PublishedLayer{}
		if err := rows.Scan(&l.Path, &l.RunID, &l.Bucket, &l.Bytes, &l.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan published layer: %w", err)
		}
		layers = append(layers, l)
	}
	return layers, rows.Err()
}
