// src/services/backend_client.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/net/publicsuffix"

	"github.com/username/txlens/backend/src/logger"
	"github.com/username/txlens/backend/src/models"
	"github.com/username/txlens/backend/src/processors"
)

const maxBackendBodyBytes = 64 << 20

type backendClientImpl struct {
	baseURL          string
	httpClient       http.Client
	txProcessor      *processors.TransactionProcessor
	clusterProcessor *processors.ClusterProcessor
	clusterCache     *cache.Cache
}

// NewBackendClient talks to the analysis backend at baseURL (no trailing slash).
// Cluster responses are kept for clusterCacheExpiry per parameter tuple.
func NewBackendClient(baseURL string, timeout, clusterCacheExpiry time.Duration) BackendClient {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &backendClientImpl{
		baseURL: baseURL,
		httpClient: http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		txProcessor:      processors.NewTransactionProcessor(),
		clusterProcessor: processors.NewClusterProcessor(),
		clusterCache:     cache.New(clusterCacheExpiry, 2*clusterCacheExpiry),
	}
}

func (c *backendClientImpl) FetchTransactions(ctx context.Context) ([]*models.Transaction, error) {
	var records []models.TransactionServerData
	if err := c.getJSON(ctx, "/transactionData", nil, &records); err != nil {
		return nil, err
	}
	// The backend may have been reloaded; previous clusterings are stale.
	c.clusterCache.Flush()
	return c.txProcessor.Process(records)
}

func (c *backendClientImpl) FetchFrequencyInfo(ctx context.Context, cfg models.ClusterConfig) ([]*models.Transaction, error) {
	var records []models.TransactionServerData
	if err := c.getJSON(ctx, "/transactionData/updateFrequencyInfo", FrequencyInfoQuery(cfg), &records); err != nil {
		return nil, err
	}
	// Frequency is a clustering metric, so cached clusterings no longer hold.
	c.clusterCache.Flush()
	return c.txProcessor.Process(records)
}

func (c *backendClientImpl) FetchClusters(ctx context.Context, numberOfCluster int, metric1, metric2 string) ([]models.ClusterAssignment, error) {
	cacheKey := fmt.Sprintf("kmean-%d-%s-%s", numberOfCluster, metric1, metric2)
	if cached, found := c.clusterCache.Get(cacheKey); found {
		logger.FromContext(ctx).Debug("Cluster cache hit", "key", cacheKey)
		return cached.([]models.ClusterAssignment), nil
	}

	q := url.Values{}
	q.Set("numberOfCluster", strconv.Itoa(numberOfCluster))
	q.Set("metric1", metric1)
	q.Set("metric2", metric2)

	var byNumber map[string]models.ClusterServerData
	if err := c.getJSON(ctx, "/transactionData/kmean", q, &byNumber); err != nil {
		return nil, err
	}
	clusters, err := c.clusterProcessor.Process(byNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	c.clusterCache.Set(cacheKey, clusters, cache.DefaultExpiration)
	return clusters, nil
}

// FrequencyInfoQuery builds the updateFrequencyInfo query string. The string-clustering
// parameters are only sent for the clustered description key.
func FrequencyInfoQuery(cfg models.ClusterConfig) url.Values {
	q := url.Values{}
	q.Set("frequencyUniqueKey", string(cfg.Frequency.FrequencyUniqueKey))
	q.Set("per", cfg.Frequency.Per)
	q.Set("metric1", cfg.Metric1)
	q.Set("metric2", cfg.Metric2)
	q.Set("numberOfCluster", strconv.Itoa(cfg.NumberOfCluster))
	if cfg.Frequency.FrequencyUniqueKey == models.FrequencyKeyClusteredTransactionDescription {
		q.Set("distanceMeasure", cfg.Frequency.DistanceMeasure)
		q.Set("linkageMethod", cfg.Frequency.LinkageMethod)
		q.Set("numberOfClusterForString", strconv.Itoa(cfg.Frequency.NumberOfClusterForString))
	}
	return q
}

// getJSON issues a GET and decodes the body into out. Transport failures, non-200
// statuses and bodies of the wrong shape all wrap ErrBackend.
func (c *backendClientImpl) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrBackend, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.FromContext(ctx).Warn("Backend request failed", "url", u, "error", err)
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		logger.FromContext(ctx).Warn("Backend returned non-OK status", "status", resp.Status, "url", u)
		return fmt.Errorf("%w: %s returned %s", ErrBackend, path, resp.Status)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBackendBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrBackend, path, err)
	}
	logger.FromContext(ctx).Debug("Backend request done", "path", path, "duration", time.Since(start))
	return nil
}
