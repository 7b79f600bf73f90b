// Package search keeps a full-text index of post content.
package search

import (
	"context"
	"fmt"
	"time"

	"chirp/domain"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Index wraps a Bleve index of posts.
type Index struct {
	index bleve.Index
}

// indexedPost is the document stored for every post.
type indexedPost struct {
	Content   string
	AuthorID  string
	CreatedAt time.Time
}

// Open opens the index at path, creating it when missing. An empty path
// gives an in-memory index. created reports whether the index is new.
func Open(path string) (idx *Index, created bool, err error) {
	if path == "" {
		i, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, false, fmt.Errorf("create memory index: %w", err)
		}
		return &Index{index: i}, true, nil
	}

	i, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		i, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, false, fmt.Errorf("create index: %w", err)
		}
		return &Index{index: i}, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open index: %w", err)
	}
	return &Index{index: i}, false, nil
}

func buildIndexMapping() mapping.IndexMapping {
	contentMapping := bleve.NewTextFieldMapping()
	contentMapping.Analyzer = "en"

	authorMapping := bleve.NewKeywordFieldMapping()

	createdMapping := bleve.NewDateTimeFieldMapping()

	postMapping := bleve.NewDocumentMapping()
	postMapping.AddFieldMappingsAt("Content", contentMapping)
	postMapping.AddFieldMappingsAt("AuthorID", authorMapping)
	postMapping.AddFieldMappingsAt("CreatedAt", createdMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = postMapping
	return indexMapping
}

func (i *Index) Close() error {
	return i.index.Close()
}

// Index adds or replaces a post.
func (i *Index) Index(p domain.Post) error {
	return i.index.Index(p.ID, indexedPost{
		Content:   p.Content,
		AuthorID:  p.AuthorID,
		CreatedAt: p.CreatedAt,
	})
}

// Rebuild indexes every post handed to it by each, in batches.
func (i *Index) Rebuild(ctx context.Context, each func(context.Context, func(domain.Post) error) error) (int, error) {
	batch := i.index.NewBatch()
	total := 0
	err := each(ctx, func(p domain.Post) error {
		if err := batch.Index(p.ID, indexedPost{Content: p.Content, AuthorID: p.AuthorID, CreatedAt: p.CreatedAt}); err != nil {
			return fmt.Errorf("batch post %s: %w", p.ID, err)
		}
		total++
		if batch.Size() >= 500 {
			if err := i.index.Batch(batch); err != nil {
				return fmt.Errorf("flush batch: %w", err)
			}
			batch.Reset()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	if batch.Size() > 0 {
		if err := i.index.Batch(batch); err != nil {
			return total, fmt.Errorf("flush batch: %w", err)
		}
	}
	return total, nil
}

// Search returns the ids of posts matching query, newest first.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	q := bleve.NewMatchQuery(query)
	q.SetField("Content")
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.SortBy([]string{"-CreatedAt", "-_id"})

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
