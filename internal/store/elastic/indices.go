package elastic

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"
)

const usersMapping = `{
  "mappings": {
    "properties": {
      "username":        {"type": "keyword"},
      "hashed_password": {"type": "keyword", "index": false},
      "role":            {"type": "keyword"}
    }
  }
}`

const tasksMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "status":      {"type": "keyword"},
      "username":    {"type": "keyword"},
      "created_at":  {"type": "date", "format": "strict_date_optional_time||epoch_millis"},
      "updated_at":  {"type": "date", "format": "strict_date_optional_time||epoch_millis"}
    }
  }
}`

// EnsureIndices creates the users and tasks indices with their mappings
// when they do not exist yet.
func EnsureIndices(ctx context.Context, es *elasticsearch.Client, usersIndex, tasksIndex string) error {
	if err := ensureIndex(ctx, es, usersIndex, usersMapping); err != nil {
		return err
	}
	return ensureIndex(ctx, es, tasksIndex, tasksMapping)
}

func ensureIndex(ctx context.Context, es *elasticsearch.Client, index, mapping string) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, es)
	if err != nil {
		return storeError("index exists", err)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return responseError("index exists", res)
	}

	res, err = esapi.IndicesCreateRequest{
		Index: index,
		Body:  strings.NewReader(mapping),
	}.Do(ctx, es)
	if err != nil {
		return storeError("create index", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		// another instance created it first
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		res.Body = io.NopCloser(strings.NewReader(string(body)))
		return responseError("create index", res)
	}

	logrus.WithField("index", index).Info("Created Elasticsearch index")
	return nil
}
