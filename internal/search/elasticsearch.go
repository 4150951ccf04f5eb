package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"tamasya/internal/models"
)

// ElasticsearchClient maintains the activity catalog read model. The booking
// transaction never reads from here; Postgres stays the source of truth for
// prices and capacity.
type ElasticsearchClient struct {
	client *elasticsearch.Client
	index  string
}

type Config struct {
	URL        string
	Username   string
	Password   string
	Index      string
	MaxRetries int
}

func NewElasticsearchClient(cfg Config) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &ElasticsearchClient{
		client: es,
		index:  cfg.Index,
	}

	if err := client.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

func (c *ElasticsearchClient) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	mapping := `{
		"mappings": {
			"properties": {
				"id":             {"type": "long"},
				"title":          {"type": "text"},
				"location":       {"type": "text"},
				"price_adult":    {"type": "long"},
				"currency":       {"type": "keyword"},
				"rating_average": {"type": "float"},
				"review_count":   {"type": "integer"}
			}
		}
	}`

	createReq := esapi.IndicesCreateRequest{
		Index: c.index,
		Body:  bytes.NewReader([]byte(mapping)),
	}

	createRes, err := createReq.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	return nil
}

// IndexActivity upserts one activity document.
func (c *ElasticsearchClient) IndexActivity(ctx context.Context, activity *models.Activity) error {
	doc := models.ListActivitiesResponseItem{
		ID:            activity.ID,
		Title:         activity.Title,
		Location:      activity.Location,
		PriceAdult:    activity.PriceAdult,
		Currency:      activity.Currency,
		RatingAverage: activity.RatingAverage,
		ReviewCount:   activity.ReviewCount,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal activity document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: strconv.FormatInt(activity.ID, 10),
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index activity: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index activity %d: %s", activity.ID, res.String())
	}

	return nil
}

// List returns a page of the catalog ordered by id.
func (c *ElasticsearchClient) List(ctx context.Context, page, pageSize int) (models.ListActivitiesResponse, error) {
	query := map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"sort":  []map[string]any{{"id": map[string]any{"order": "asc"}}},
		"from":  (page - 1) * pageSize,
		"size":  pageSize,
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(c.index),
		c.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search activities: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.String())
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.ListActivitiesResponseItem `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := make(models.ListActivitiesResponse, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		result = append(result, hit.Source)
	}

	return result, nil
}
