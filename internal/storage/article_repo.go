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

	"github.com/yazgan/pressgen/internal/models"
)

type ArticleRepo struct {
	dir string
	mu  sync.RWMutex
}

func NewArticleRepo(basePath string) (*ArticleRepo, error) {
	dir := filepath.Join(basePath, "articles")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create articles directory: %w", err)
	}
	return &ArticleRepo{dir: dir}, nil
}

func (r *ArticleRepo) Save(ctx context.Context, a *models.Article) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal article: %w", err)
	}
	if err := os.WriteFile(r.path(a.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write article file: %w", err)
	}
	return nil
}

func (r *ArticleRepo) FindByID(ctx context.Context, id string) (*models.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read article file: %w", err)
	}
	var a models.Article
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal article: %w", err)
	}
	return &a, nil
}

// List returns stored articles, newest first, with offset/limit paging.
func (r *ArticleRepo) List(ctx context.Context, page, pageSize int) ([]*models.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read articles directory: %w", err)
	}

	var all []*models.Article
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read article file: %w", err)
		}
		var a models.Article
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal article: %w", err)
		}
		all = append(all, &a)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := (page - 1) * pageSize
	if start >= len(all) || start < 0 {
		return []*models.Article{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *ArticleRepo) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}
