package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diegopaiva1/file-search-poc/internal/model"
	"github.com/diegopaiva1/file-search-poc/internal/repository"
	"github.com/diegopaiva1/file-search-poc/pkg/es"
	"github.com/diegopaiva1/file-search-poc/pkg/log"
)

var (
	// ErrEmptyQuery is returned when the search query is missing or blank.
	ErrEmptyQuery = errors.New("search query must not be empty")
	// ErrInvalidLimit is returned when limit falls outside [1, 100].
	ErrInvalidLimit = errors.New("limit must be between 1 and 100")
	// ErrInvalidOffset is returned when offset is negative.
	ErrInvalidOffset = errors.New("offset must not be negative")
)

// FileSearcher runs a ranked full-text query and returns one page of hits
// plus the total match count.
type FileSearcher interface {
	SearchFiles(ctx context.Context, query string, limit, offset int) ([]es.FileHit, int64, error)
}

// SearchService executes validated full-text searches over extracted
// document content.
type SearchService interface {
	Search(ctx context.Context, query string, limit, offset int) (*model.SearchResponse, error)
}

type searchService struct {
	searcher FileSearcher
	repo     repository.FileRepository
}

// NewSearchService creates a SearchService over the given search backend
// and metadata repository.
func NewSearchService(searcher FileSearcher, repo repository.FileRepository) SearchService {
	return &searchService{searcher: searcher, repo: repo}
}

// Search validates the request, queries the index and hydrates each hit
// with its current metadata from the database. Only files with extracted
// text are ever indexed, so files that never completed processing cannot
// match. The raw extracted text stays server-side; callers only see the
// highlighted snippet.
func (s *searchService) Search(ctx context.Context, query string, limit, offset int) (*model.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit < 1 || limit > 100 {
		return nil, ErrInvalidLimit
	}
	if offset < 0 {
		return nil, ErrInvalidOffset
	}

	hits, total, err := s.searcher.SearchFiles(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search backend failed: %w", err)
	}

	response := &model.SearchResponse{
		Files:  []model.SearchResultDTO{},
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	if len(hits) == 0 {
		return response, nil
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.FileID)
	}

	files, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load file metadata for search hits: %w", err)
	}

	byID := make(map[string]*model.File, len(files))
	for _, file := range files {
		byID[file.ID] = file
	}

	// Keep the index's relevance order. A hit without a row was deleted
	// after indexing; drop it rather than fabricate metadata.
	for _, hit := range hits {
		file, ok := byID[hit.FileID]
		if !ok {
			log.Warnf("search hit %s has no metadata row, skipping stale index entry", hit.FileID)
			continue
		}
		response.Files = append(response.Files, model.SearchResultDTO{
			ID:                    file.ID,
			Filename:              file.Filename,
			OriginalName:          file.OriginalName,
			MimeType:              file.MimeType,
			SizeBytes:             file.SizeBytes,
			LatestJobStatus:       file.LatestJobStatus,
			LatestJobErrorMessage: file.LatestJobErrorMessage,
			Snippet:               hit.Snippet,
			Score:                 hit.Score,
			CreatedAt:             file.CreatedAt,
			UpdatedAt:             file.UpdatedAt,
		})
	}

	return response, nil
}
