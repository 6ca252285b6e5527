package queryelasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealmatch-workers/internal/common/camunda/camundatest"
	apperrors "dealmatch-workers/internal/common/errors"
	"dealmatch-workers/internal/common/logger"
)

func createTestConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		ListingsIndex: "listings",
		BuyersIndex:   "buyers",
	}
}

type recordedRequest struct {
	Path string
	Body map[string]interface{}
}

// fakeCluster answers every search with status and body, recording what it was asked.
func fakeCluster(t *testing.T, status int, body string) (*elasticsearch.Client, *[]recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec := recordedRequest{Path: r.URL.Path}
		_ = json.Unmarshal(raw, &rec.Body)
		mu.Lock()
		reqs = append(reqs, rec)
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, &reqs
}

const twoHits = `{
  "took": 3,
  "hits": {
    "total": {"value": 2, "relation": "eq"},
    "max_score": 13.5,
    "hits": [
      {"_id": "l-1", "_score": 13.5, "_source": {"id": "l-1", "city": "Miami", "industry": "Retail"}},
      {"_id": "doc-2", "_score": 3.0, "_source": {"id": "l-2", "city": "Tampa", "industry": "Retail"}}
    ]
  }
}`

func TestHandler_Execute_ListingCandidates(t *testing.T) {
	client, reqs := fakeCluster(t, http.StatusOK, twoHits)
	handler := NewHandler(createTestConfig(), client, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: "listing_candidates",
		Filters: map[string]interface{}{
			"industries": []interface{}{"Retail"},
			"city":       "Miami",
			"budget":     map[string]interface{}{"min": 100000.0, "max": 200000.0},
		},
		Pagination: Pagination{Size: 50},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"l-1", "l-2"}, output.IDs)
	assert.Equal(t, int64(2), output.TotalHits)
	assert.Equal(t, 13.5, output.MaxScore)
	assert.Equal(t, "Tampa", output.Data[1]["city"])

	require.Len(t, *reqs, 1)
	assert.Equal(t, "/listings/_search", (*reqs)[0].Path)
	assert.Contains(t, (*reqs)[0].Body, "query")
}

func TestHandler_Execute_DefaultIndexForBuyerCandidates(t *testing.T) {
	client, reqs := fakeCluster(t, http.StatusOK, `{"hits":{"total":{"value":0},"hits":[]}}`)
	handler := NewHandler(createTestConfig(), client, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: "buyer_candidates",
		Filters:   map[string]interface{}{"industry": "Retail"},
	})
	require.NoError(t, err)
	assert.Empty(t, output.IDs)
	assert.Zero(t, output.MaxScore)
	assert.Equal(t, "/buyers/_search", (*reqs)[0].Path)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		input        *Input
		expectedCode apperrors.ErrorCode
	}{
		{
			name:         "unknown query type",
			status:       http.StatusOK,
			body:         twoHits,
			input:        &Input{QueryType: "seller_index"},
			expectedCode: apperrors.ErrCodeInvalidQueryType,
		},
		{
			name:         "missing index",
			status:       http.StatusNotFound,
			body:         `{"error":{"type":"index_not_found_exception"},"status":404}`,
			input:        &Input{QueryType: "listing_keyword", Filters: map[string]interface{}{"keywords": "bakery"}},
			expectedCode: apperrors.ErrCodeIndexNotFound,
		},
		{
			name:         "cluster error",
			status:       http.StatusBadRequest,
			body:         `{"error":{"type":"parsing_exception"},"status":400}`,
			input:        &Input{QueryType: "listing_keyword", Filters: map[string]interface{}{"keywords": "bakery"}},
			expectedCode: apperrors.ErrCodeSearchQueryFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := fakeCluster(t, tt.status, tt.body)
			handler := NewHandler(createTestConfig(), client, nil, logger.NewTestLogger(t))

			_, err := handler.Execute(context.Background(), tt.input)
			assert.True(t, apperrors.HasCode(err, tt.expectedCode), "got %v", err)
		})
	}
}

func TestHandler_Execute_ConnectionRefused(t *testing.T) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  []string{"http://127.0.0.1:1"},
		MaxRetries: 1,
	})
	require.NoError(t, err)
	handler := NewHandler(createTestConfig(), client, nil, logger.NewTestLogger(t))

	_, err = handler.Execute(context.Background(), &Input{
		QueryType: "listing_candidates",
		Filters:   map[string]interface{}{"industries": []interface{}{"Retail"}},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeElasticsearchConnectionFailed), "got %v", err)
}

func TestHandler_Handle(t *testing.T) {
	t.Run("completes with ids", func(t *testing.T) {
		client, _ := fakeCluster(t, http.StatusOK, twoHits)
		handler := NewHandler(createTestConfig(), client, nil, logger.NewTestLogger(t))
		jobs := camundatest.NewJobClient()

		handler.Handle(jobs, camundatest.NewJob(t, 7, TaskType, map[string]interface{}{
			"queryType": "listing_keyword",
			"filters":   map[string]interface{}{"keywords": "coffee roastery"},
		}))

		require.Len(t, jobs.Completed(), 1)
		var out Output
		camundatest.DecodeVariables(t, jobs.Completed()[0].Variables, &out)
		assert.Equal(t, []string{"l-1", "l-2"}, out.IDs)
	})

	t.Run("malformed variables throw", func(t *testing.T) {
		client, _ := fakeCluster(t, http.StatusOK, twoHits)
		handler := NewHandler(createTestConfig(), client, nil, logger.NewTestLogger(t))
		jobs := camundatest.NewJobClient()

		handler.Handle(jobs, camundatest.NewJob(t, 8, TaskType, `not json`))

		require.Len(t, jobs.Thrown(), 1)
		assert.True(t, strings.HasPrefix(jobs.Thrown()[0].ErrorCode, "INVALID_INPUT"))
	})
}
