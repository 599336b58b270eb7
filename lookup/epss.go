package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/CodeClarityCE/vulnerabilities/model"
	"go.uber.org/zap"
)

// DefaultEPSSURL is the FIRST.org EPSS API endpoint.
const DefaultEPSSURL = "https://api.first.org/data/v1/epss"

// EPSSClient fetches EPSS scores from the FIRST.org API, caching results so
// merging a workspace does not re-query the same advisory over and over.
type EPSSClient struct {
	baseURL    string
	httpClient *http.Client
	cache      *TTLCache[model.EPSSScore]
	logger     *zap.Logger
}

// epssResponse is the wire format of the EPSS API.
type epssResponse struct {
	Data []struct {
		CVE        string `json:"cve"`
		EPSS       string `json:"epss"`
		Percentile string `json:"percentile"`
	} `json:"data"`
}

// NewEPSSClient creates an EPSS client with the given cache bounds.
func NewEPSSClient(baseURL string, cacheCapacity int, cacheTTL time.Duration, logger *zap.Logger) *EPSSClient {
	if baseURL == "" {
		baseURL = DefaultEPSSURL
	}
	return &EPSSClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      NewTTLCache[model.EPSSScore](cacheCapacity, cacheTTL),
		logger:     logger,
	}
}

// LookupEPSS returns the EPSS score for one advisory id. Unknown ids and
// fetch failures yield a zeroed score; the merge must not abort because the
// scoring service is down.
func (c *EPSSClient) LookupEPSS(ctx context.Context, advisoryID string) model.EPSSScore {
	if score, ok := c.cache.Get(advisoryID); ok {
		return score
	}

	scores, err := c.fetch(ctx, []string{advisoryID})
	if err != nil {
		c.logger.Sugar().Warnf("EPSS lookup failed for %s: %v", advisoryID, err)
		return model.EPSSScore{}
	}

	score := scores[advisoryID]
	c.cache.Set(advisoryID, score)
	return score
}

// Prefetch warms the cache for a batch of advisory ids, chunked to keep the
// query string within URL length limits.
func (c *EPSSClient) Prefetch(ctx context.Context, advisoryIDs []string) {
	var missing []string
	for _, id := range advisoryIDs {
		if _, ok := c.cache.Get(id); !ok {
			missing = append(missing, id)
		}
	}

	const chunkSize = 100
	for i := 0; i < len(missing); i += chunkSize {
		end := i + chunkSize
		if end > len(missing) {
			end = len(missing)
		}
		chunk := missing[i:end]

		scores, err := c.fetch(ctx, chunk)
		if err != nil {
			c.logger.Sugar().Warnf("EPSS prefetch failed for %d ids: %v", len(chunk), err)
			continue
		}
		for _, id := range chunk {
			c.cache.Set(id, scores[id])
		}
	}
}

// fetch queries the EPSS API for the given ids. Ids absent from the response
// are simply missing from the returned map.
func (c *EPSSClient) fetch(ctx context.Context, advisoryIDs []string) (map[string]model.EPSSScore, error) {
	url := fmt.Sprintf("%s?cve=%s", c.baseURL, strings.Join(advisoryIDs, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("EPSS API returned status %d", resp.StatusCode)
	}

	var parsed epssResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	scores := make(map[string]model.EPSSScore, len(parsed.Data))
	for _, entry := range parsed.Data {
		score, _ := strconv.ParseFloat(entry.EPSS, 64)
		percentile, _ := strconv.ParseFloat(entry.Percentile, 64)
		scores[entry.CVE] = model.EPSSScore{Score: score, Percentile: percentile}
	}
	return scores, nil
}
