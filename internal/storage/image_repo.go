package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yazgan/pressgen/internal/models"
)

type ImageRepo struct {
	dir string
	mu  sync.RWMutex
}

func NewImageRepo(basePath string) (*ImageRepo, error) {
	dir := filepath.Join(basePath, "images")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return &ImageRepo{dir: dir}, nil
}

func (r *ImageRepo) Save(ctx context.Context, img *models.FeaturedImage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(img, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal featured image: %w", err)
	}
	if err := os.WriteFile(r.path(img.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}

func (r *ImageRepo) FindByID(ctx context.Context, id string) (*models.FeaturedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read(r.path(id))
}

// FindByArticleID returns the image owned by the article, one per article.
func (r *ImageRepo) FindByArticleID(ctx context.Context, articleID string) (*models.FeaturedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read images directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		img, err := r.read(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if img.ArticleID == articleID {
			return img, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *ImageRepo) read(path string) (*models.FeaturedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	var img models.FeaturedImage
	if err := json.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("failed to unmarshal featured image: %w", err)
	}
	return &img, nil
}

func (r *ImageRepo) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}
