package game

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/pkg/entities"
)

// indexDateLayout is the suffix of every monthly games index
const indexDateLayout = "2006-01"

// ElasticsearchConfig holds configuration options for the Elasticsearch repository
type ElasticsearchConfig struct {
	URL             string
	Username        string
	Password        string
	IndexPrefix     string
	RetentionPeriod time.Duration // How long to keep game results in Elasticsearch
	RotationPeriod  time.Duration // How often to check for a new month's index
}

// DefaultElasticsearchConfig returns a default configuration for Elasticsearch
func DefaultElasticsearchConfig() *ElasticsearchConfig {
	return &ElasticsearchConfig{
		URL:             "http://localhost:9200",
		IndexPrefix:     "reverseroulette",
		RetentionPeriod: 90 * 24 * time.Hour, // 90 days
		RotationPeriod:  24 * time.Hour,
	}
}

// ElasticsearchRepository indexes finished games in Elasticsearch on top of a
// base repository. The base repository stays the source of truth; searches
// fall back to it when the cluster cannot answer.
type ElasticsearchRepository struct {
	baseRepo Repository
	client   *elasticsearch.Client
	config   *ElasticsearchConfig
	logger   *logging.Logger

	mu               sync.Mutex
	currentGameIndex string
}

// NewElasticsearchRepository creates a new Elasticsearch repository and makes
// sure the current month's index exists
func NewElasticsearchRepository(ctx context.Context, baseRepo Repository, config *ElasticsearchConfig, logger *logging.Logger) (*ElasticsearchRepository, error) {
	if config == nil {
		config = DefaultElasticsearchConfig()
	}
	if logger == nil {
		logger = logging.Default
	}

	// Configure the Elasticsearch client
	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}

	// Add authentication if provided
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	// Set default values if not provided
	if config.IndexPrefix == "" {
		config.IndexPrefix = "reverseroulette"
	}
	if config.RetentionPeriod == 0 {
		config.RetentionPeriod = 90 * 24 * time.Hour
	}
	if config.RotationPeriod == 0 {
		config.RotationPeriod = 24 * time.Hour
	}

	repo := &ElasticsearchRepository{
		baseRepo: baseRepo,
		client:   client,
		config:   config,
		logger:   logger.Named("elasticsearch"),
	}

	if err := repo.RotateIndices(ctx); err != nil {
		return nil, fmt.Errorf("error initializing indices: %w", err)
	}

	return repo, nil
}

// indexNameFor returns the monthly index a game completed at t belongs to
func (r *ElasticsearchRepository) indexNameFor(t time.Time) string {
	return r.config.IndexPrefix + "_games_" + t.UTC().Format(indexDateLayout)
}

func (r *ElasticsearchRepository) aliasName() string {
	return r.config.IndexPrefix + "_games"
}

func (r *ElasticsearchRepository) indexPattern() string {
	return r.config.IndexPrefix + "_games_*"
}

// RotateIndices creates the current month's index if needed and points the
// write alias at it
func (r *ElasticsearchRepository) RotateIndices(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	timeBasedIndex := r.indexNameFor(now())
	if timeBasedIndex == r.currentGameIndex {
		return nil
	}

	res, err := r.client.Indices.Exists([]string{timeBasedIndex}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error checking if index exists: %w", err)
	}
	res.Body.Close()

	// Create the index if it doesn't exist
	if res.StatusCode == 404 {
		req := esapi.IndicesCreateRequest{
			Index: timeBasedIndex,
			Body:  strings.NewReader(gameIndexMapping),
		}

		res, err := req.Do(ctx, r.client)
		if err != nil {
			return fmt.Errorf("error creating time-based index: %w", err)
		}
		defer res.Body.Close()

		if res.IsError() {
			return fmt.Errorf("error creating time-based index: %s", res.String())
		}

		r.logger.Info("Created new time-based index: %s", timeBasedIndex)
	}

	actions := []map[string]interface{}{
		{
			"add": map[string]interface{}{
				"index":          timeBasedIndex,
				"alias":          r.aliasName(),
				"is_write_index": true,
			},
		},
	}
	if r.currentGameIndex != "" {
		actions = append(actions, map[string]interface{}{
			"add": map[string]interface{}{
				"index":          r.currentGameIndex,
				"alias":          r.aliasName(),
				"is_write_index": false,
			},
		})
	}

	aliasJSON, err := json.Marshal(map[string]interface{}{"actions": actions})
	if err != nil {
		return fmt.Errorf("error marshaling alias actions: %w", err)
	}

	aliasReq := esapi.IndicesUpdateAliasesRequest{
		Body: bytes.NewReader(aliasJSON),
	}

	aliasRes, err := aliasReq.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("error updating alias: %w", err)
	}
	defer aliasRes.Body.Close()

	if aliasRes.IsError() {
		return fmt.Errorf("error updating alias: %s", aliasRes.String())
	}

	r.currentGameIndex = timeBasedIndex
	return nil
}

// PruneOldIndices deletes monthly indices whose whole month is older than
// the retention period
func (r *ElasticsearchRepository) PruneOldIndices(ctx context.Context) error {
	indices, err := r.GetIndices(ctx, r.indexPattern())
	if err != nil {
		return err
	}

	cutoffDate := now().Add(-r.config.RetentionPeriod)
	prefix := r.config.IndexPrefix + "_games_"

	for _, indexName := range indices {
		indexDate, err := time.Parse(indexDateLayout, strings.TrimPrefix(indexName, prefix))
		if err != nil {
			r.logger.Warn("Skipping index %s: %v", indexName, err)
			continue
		}

		// The index holds games up to the end of its month
		if !indexDate.AddDate(0, 1, 0).Before(cutoffDate) {
			continue
		}

		r.mu.Lock()
		current := indexName == r.currentGameIndex
		r.mu.Unlock()
		if current {
			continue
		}

		r.logger.Info("Pruning index %s (older than retention period of %v)", indexName, r.config.RetentionPeriod)

		req := esapi.IndicesDeleteRequest{
			Index: []string{indexName},
		}
		res, err := req.Do(ctx, r.client)
		if err != nil {
			r.logger.Error("Error deleting index %s: %v", indexName, err)
			continue
		}
		if res.IsError() {
			r.logger.Error("Error deleting index %s: %s", indexName, res.String())
		}
		res.Body.Close()
	}

	return nil
}

// RotationPeriod reports how often RotateIndices should run
func (r *ElasticsearchRepository) RotationPeriod() time.Duration {
	return r.config.RotationPeriod
}

// GetIndices returns a list of indices that match the given pattern
func (r *ElasticsearchRepository) GetIndices(ctx context.Context, pattern string) ([]string, error) {
	res, err := r.client.Indices.Get(
		[]string{pattern},
		r.client.Indices.Get.WithContext(ctx),
		r.client.Indices.Get.WithExpandWildcards("open"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get indices: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error getting indices: %s", res.String())
	}

	var indices map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&indices); err != nil {
		return nil, fmt.Errorf("error parsing indices response: %w", err)
	}

	indexNames := make([]string, 0, len(indices))
	for name := range indices {
		indexNames = append(indexNames, name)
	}
	sort.Strings(indexNames)

	return indexNames, nil
}

// IndexGameResult writes a game result into the month it completed in
func (r *ElasticsearchRepository) IndexGameResult(ctx context.Context, gameResult *entities.GameResult) error {
	if err := r.RotateIndices(ctx); err != nil {
		return fmt.Errorf("error rotating indices: %w", err)
	}

	jsonData, err := json.Marshal(toESGameResult(gameResult))
	if err != nil {
		return fmt.Errorf("error marshaling game result: %w", err)
	}

	completedAt := gameResult.CompletedAt
	if completedAt.IsZero() {
		completedAt = now()
	}

	res, err := r.client.Index(
		r.indexNameFor(completedAt),
		bytes.NewReader(jsonData),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(gameResult.ID),
		r.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("error indexing game result: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing game result: %s", res.String())
	}

	return nil
}

// SaveGameResult saves a game result to the base repository and indexes it in Elasticsearch
func (r *ElasticsearchRepository) SaveGameResult(ctx context.Context, result *entities.GameResult) error {
	if err := r.baseRepo.SaveGameResult(ctx, result); err != nil {
		return fmt.Errorf("error saving game result to base repository: %w", err)
	}

	// The game is already recorded; a search index miss is not fatal
	if err := r.IndexGameResult(ctx, result); err != nil {
		r.logger.Warn("Failed to index game result %s: %v", result.ID, err)
	}
	return nil
}

// GetRecentResults searches the games indices, newest first
func (r *ElasticsearchRepository) GetRecentResults(ctx context.Context, limit int) ([]*entities.GameResult, error) {
	query := `{
		"query": { "match_all": {} },
		"sort": [
			{ "completed_at": { "order": "desc" } }
		]
	}`

	results, err := r.search(ctx, query, limit)
	if err != nil {
		r.logger.Warn("Falling back to base repository for recent results: %v", err)
		return r.baseRepo.GetRecentResults(ctx, limit)
	}
	return results, nil
}

// GetPlayerResults searches the games a player took part in, newest first
func (r *ElasticsearchRepository) GetPlayerResults(ctx context.Context, playerName string) ([]*entities.GameResult, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"nested": map[string]interface{}{
				"path": "players",
				"query": map[string]interface{}{
					"term": map[string]interface{}{
						"players.player_key": playerKey(playerName),
					},
				},
			},
		},
		"sort": []map[string]interface{}{
			{"completed_at": map[string]interface{}{"order": "desc"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error building player query: %w", err)
	}

	results, err := r.search(ctx, string(body), 0)
	if err != nil {
		r.logger.Warn("Falling back to base repository for player results: %v", err)
		return r.baseRepo.GetPlayerResults(ctx, playerName)
	}
	return results, nil
}

func (r *ElasticsearchRepository) search(ctx context.Context, query string, limit int) ([]*entities.GameResult, error) {
	if limit <= 0 {
		limit = 1000
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.indexPattern()),
		r.client.Search.WithBody(strings.NewReader(query)),
		r.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("error searching game results: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching game results: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source ESGameResult `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error parsing search response: %w", err)
	}

	resultsList := make([]*entities.GameResult, 0, len(result.Hits.Hits))
	for i := range result.Hits.Hits {
		resultsList = append(resultsList, result.Hits.Hits[i].Source.GameResult())
	}
	return resultsList, nil
}

// GetPlayerStatistics delegates to the base repository
func (r *ElasticsearchRepository) GetPlayerStatistics(ctx context.Context, playerName string) (*entities.PlayerStatistics, error) {
	return r.baseRepo.GetPlayerStatistics(ctx, playerName)
}

// GetAllPlayerStatistics delegates to the base repository
func (r *ElasticsearchRepository) GetAllPlayerStatistics(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	return r.baseRepo.GetAllPlayerStatistics(ctx)
}

// Close closes the base repository
func (r *ElasticsearchRepository) Close() error {
	return r.baseRepo.Close()
}

// GetIndexPrefix returns the index prefix used by the repository
func (r *ElasticsearchRepository) GetIndexPrefix() string {
	return r.config.IndexPrefix
}

// CurrentIndex returns the index new games are written to
func (r *ElasticsearchRepository) CurrentIndex() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentGameIndex
}
