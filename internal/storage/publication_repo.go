// Package storage persists aggregates as JSON files on disk. Writes are
// whole-file overwrites, so concurrent writers get last-write-wins; the
// publish driver keeps a single writer per aggregate.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yazgan/pressgen/internal/models"
)

type PublicationRepo struct {
	dir string
	mu  sync.RWMutex
}

func NewPublicationRepo(basePath string) (*PublicationRepo, error) {
	dir := filepath.Join(basePath, "publications")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create publications directory: %w", err)
	}
	return &PublicationRepo{dir: dir}, nil
}

// Save writes the aggregate, overwriting any previous state.
func (r *PublicationRepo) Save(ctx context.Context, p *models.Publication) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal publication: %w", err)
	}
	if err := os.WriteFile(r.path(p.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write publication file: %w", err)
	}
	return nil
}

// FindByID loads one publication, rehydrated through the explicit factory.
func (r *PublicationRepo) FindByID(ctx context.Context, id string) (*models.Publication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read(r.path(id))
}

// FindByArticleID returns all publications for an article.
func (r *PublicationRepo) FindByArticleID(ctx context.Context, articleID string) ([]*models.Publication, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.Publication
	for _, p := range all {
		if p.ArticleID == articleID {
			out = append(out, p)
		}
	}
	return out, nil
}

// List returns every stored publication, newest first.
func (r *PublicationRepo) List(ctx context.Context) ([]*models.Publication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read publications directory: %w", err)
	}

	var out []*models.Publication
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		p, err := r.read(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// FindClaimable returns pending publications plus scheduled ones that are
// due, oldest first so the worker drains fairly.
func (r *PublicationRepo) FindClaimable(ctx context.Context, now time.Time) ([]*models.Publication, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.Publication
	for _, p := range all {
		if p.Status == models.PublicationPending || p.Due(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *PublicationRepo) read(path string) (*models.Publication, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read publication file: %w", err)
	}
	var stored models.Publication
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal publication: %w", err)
	}
	return models.RehydratePublication(stored), nil
}

func (r *PublicationRepo) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}
