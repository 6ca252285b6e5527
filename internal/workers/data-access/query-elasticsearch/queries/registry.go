package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

var (
	ErrIndexNotFound = errors.New("index not found")
	ErrTransport     = errors.New("elasticsearch transport error")
)

type QueryResult struct {
	IDs       []string
	Data      []map[string]interface{}
	TotalHits int64
	MaxScore  float64
	Took      int64
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			ID     string                 `json:"_id"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Execute runs sr against the cluster. Page size defaults to 20 and is capped at 500.
func Execute(ctx context.Context, esClient *elasticsearch.Client, sr SearchRequest) (*QueryResult, error) {
	if sr.Pagination.Size < 1 {
		sr.Pagination.Size = defaultPageSize
	}
	if sr.Pagination.Size > maxPageSize {
		sr.Pagination.Size = maxPageSize
	}
	if sr.Pagination.From < 0 {
		sr.Pagination.From = 0
	}

	req, err := BuildQuery(sr)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := req.Do(ctx, esClient)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, sr.Index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search query failed: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := &QueryResult{
		IDs:       make([]string, 0, len(r.Hits.Hits)),
		Data:      make([]map[string]interface{}, 0, len(r.Hits.Hits)),
		TotalHits: r.Hits.Total.Value,
		Took:      time.Since(start).Milliseconds(),
	}
	if r.Hits.MaxScore != nil {
		out.MaxScore = *r.Hits.MaxScore
	}
	for _, hit := range r.Hits.Hits {
		id := hit.ID
		if sid, ok := hit.Source["id"].(string); ok && sid != "" {
			id = sid
		}
		out.IDs = append(out.IDs, id)
		out.Data = append(out.Data, hit.Source)
	}
	return out, nil
}
