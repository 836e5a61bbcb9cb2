package elastic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"task_tracker/internal/apperr"
	"task_tracker/internal/config"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"
)

const (
	Backend = "elasticsearch"

	maxConnectRetries = 5
	// refresh before returning so a write is visible to the next search
	refreshWaitFor = "wait_for"
	// largest page a single search request may ask for
	maxResultWindow = 10000

	indexNotFound = "index_not_found_exception"
)

// NewClient builds a client from the ELASTIC_* settings and waits until the
// cluster answers.
func NewClient(ctx context.Context, cfg *config.ElasticConfig) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	for i := 0; i < maxConnectRetries; i++ {
		err = ping(ctx, es)
		if err == nil {
			logrus.WithField("url", cfg.URL).Info("Connected to Elasticsearch")
			return es, nil
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"attempt":     i + 1,
			"max_retries": maxConnectRetries,
		}).Warn("Failed to reach Elasticsearch")

		if i == maxConnectRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}

	return nil, err
}

func ping(ctx context.Context, es *elasticsearch.Client) error {
	res, err := esapi.InfoRequest{}.Do(ctx, es)
	if err != nil {
		return storeError("ping", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("ping", res)
	}
	return nil
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: elasticsearch %s: %w", apperr.ErrStoreUnavailable, op, err)
}

// responseError describes an unexpected status. Overload, server errors and
// a missing index count as the store being unavailable.
func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	msg := strings.TrimSpace(string(body))

	if res.StatusCode >= http.StatusInternalServerError || res.StatusCode == http.StatusTooManyRequests ||
		strings.Contains(msg, indexNotFound) {
		return fmt.Errorf("%w: elasticsearch %s: %s %s", apperr.ErrStoreUnavailable, op, res.Status(), msg)
	}
	return fmt.Errorf("elasticsearch %s: %s %s", op, res.Status(), msg)
}

// missingIndex tells a 404 for an absent index apart from a 404 for an
// absent document. It returns nil for the latter.
func missingIndex(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	if bytes.Contains(body, []byte(indexNotFound)) {
		return fmt.Errorf("%w: elasticsearch %s: %s", apperr.ErrStoreUnavailable, op, indexNotFound)
	}
	return nil
}

// documentID escapes id so it stays a single path segment.
func documentID(id string) string {
	return url.PathEscape(id)
}
