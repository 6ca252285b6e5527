// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dealmatch-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}
	esCfg := elasticsearch.Config{Addresses: addresses}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// ListingsMapping keeps location and industry as keywords for exact term filters
// and description as analyzed text for keyword pre-filtering.
const ListingsMapping = `{
  "mappings": {
    "properties": {
      "id":                    {"type": "keyword"},
      "title":                 {"type": "text"},
      "sellerId":              {"type": "keyword"},
      "country":               {"type": "keyword", "normalizer": "lowercase"},
      "state":                 {"type": "keyword", "normalizer": "lowercase"},
      "city":                  {"type": "keyword", "normalizer": "lowercase"},
      "industry":              {"type": "keyword", "normalizer": "lowercase"},
      "askingPriceLowerBound": {"type": "double"},
      "askingPriceUpperBound": {"type": "double"},
      "employees":             {"type": "integer"},
      "monthlyRevenue":        {"type": "double"},
      "description":           {"type": "text"},
      "timeline":              {"type": "double"},
      "status":                {"type": "keyword"}
    }
  },
  "settings": {
    "analysis": {"normalizer": {"lowercase": {"type": "custom", "filter": ["lowercase"]}}}
  }
}`

const BuyersMapping = `{
  "mappings": {
    "properties": {
      "id":                {"type": "keyword"},
      "country":           {"type": "keyword", "normalizer": "lowercase"},
      "state":             {"type": "keyword", "normalizer": "lowercase"},
      "city":              {"type": "keyword", "normalizer": "lowercase"},
      "industries":        {"type": "keyword", "normalizer": "lowercase"},
      "budgetRangeLower":  {"type": "double"},
      "budgetRangeHigher": {"type": "double"},
      "sizePreference":    {"type": "keyword"},
      "about":             {"type": "text"},
      "timeline":          {"type": "double"},
      "active":            {"type": "boolean"}
    }
  },
  "settings": {
    "analysis": {"normalizer": {"lowercase": {"type": "custom", "filter": ["lowercase"]}}}
  }
}`

// EnsureIndices creates each index that does not exist yet, using the given mapping body.
func (c *ElasticsearchClient) EnsureIndices(ctx context.Context, indices map[string]string) error {
	for name, mapping := range indices {
		res, err := c.Client.Indices.Exists([]string{name}, c.Client.Indices.Exists.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("check index %s: %w", name, err)
		}
		res.Body.Close()

		if res.StatusCode == http.StatusOK {
			continue
		}
		if res.StatusCode != http.StatusNotFound {
			return fmt.Errorf("check index %s: %s", name, res.Status())
		}

		created, err := c.Client.Indices.Create(name,
			c.Client.Indices.Create.WithContext(ctx),
			c.Client.Indices.Create.WithBody(strings.NewReader(mapping)),
		)
		if err != nil {
			return fmt.Errorf("create index %s: %w", name, err)
		}
		created.Body.Close()
		if created.IsError() {
			return fmt.Errorf("create index %s: %s", name, created.Status())
		}
	}
	return nil
}
