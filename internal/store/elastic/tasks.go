package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"task_tracker/internal/task"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type TaskRepository struct {
	es       *elasticsearch.Client
	index    string
	pageSize int
}

func NewTaskRepository(es *elasticsearch.Client, index string) *TaskRepository {
	return &TaskRepository{es: es, index: index, pageSize: maxResultWindow}
}

func (r *TaskRepository) Insert(ctx context.Context, t *task.Task) error {
	body, err := json.Marshal(t)
	if err != nil {
		return err
	}

	res, err := esapi.CreateRequest{
		Index:      r.index,
		DocumentID: documentID(t.ID),
		Body:       bytes.NewReader(body),
		Refresh:    refreshWaitFor,
	}.Do(ctx, r.es)
	if err != nil {
		return storeError("insert task", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("insert task", res)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*task.Task, error) {
	res, err := esapi.GetRequest{
		Index:      r.index,
		DocumentID: documentID(id),
	}.Do(ctx, r.es)
	if err != nil {
		return nil, storeError("get task", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		if err := missingIndex("get task", res); err != nil {
			return nil, err
		}
		return nil, task.ErrTaskNotFound
	case res.IsError():
		return nil, responseError("get task", res)
	}

	var hit struct {
		Source task.Task `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&hit); err != nil {
		return nil, storeError("decode task", err)
	}
	return &hit.Source, nil
}

// Replace uses the update API, which fails with 404 instead of recreating
// a document that was deleted in the meantime.
func (r *TaskRepository) Replace(ctx context.Context, t *task.Task) error {
	body, err := json.Marshal(map[string]any{"doc": t})
	if err != nil {
		return err
	}

	res, err := esapi.UpdateRequest{
		Index:      r.index,
		DocumentID: documentID(t.ID),
		Body:       bytes.NewReader(body),
		Refresh:    refreshWaitFor,
	}.Do(ctx, r.es)
	if err != nil {
		return storeError("replace task", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		if err := missingIndex("replace task", res); err != nil {
			return err
		}
		return task.ErrTaskNotFound
	case res.IsError():
		return responseError("replace task", res)
	}
	return nil
}

func (r *TaskRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := esapi.DeleteRequest{
		Index:      r.index,
		DocumentID: documentID(id),
		Refresh:    refreshWaitFor,
	}.Do(ctx, r.es)
	if err != nil {
		return storeError("delete task", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		if err := missingIndex("delete task", res); err != nil {
			return err
		}
		return task.ErrTaskNotFound
	case res.IsError():
		return responseError("delete task", res)
	}
	return nil
}

func (r *TaskRepository) List(ctx context.Context) ([]*task.Task, error) {
	return r.search(ctx, map[string]any{"match_all": map[string]any{}})
}

func (r *TaskRepository) ListByUsername(ctx context.Context, username string) ([]*task.Task, error) {
	return r.search(ctx, map[string]any{
		"term": map[string]any{"username": username},
	})
}

// search walks every page of query with search_after, so no list is cut
// off at the result window.
func (r *TaskRepository) search(ctx context.Context, query map[string]any) ([]*task.Task, error) {
	tasks := make([]*task.Task, 0)
	var after json.RawMessage

	for {
		page, last, err := r.searchPage(ctx, query, after)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, page...)

		if len(page) < r.pageSize || last == nil {
			return tasks, nil
		}
		after = last
	}
}

func (r *TaskRepository) searchPage(ctx context.Context, query map[string]any, after json.RawMessage) ([]*task.Task, json.RawMessage, error) {
	request := map[string]any{
		"query": query,
		"sort": []any{
			map[string]any{"created_at": map[string]string{"order": "asc"}},
			map[string]any{"id": map[string]string{"order": "asc"}},
		},
	}
	if after != nil {
		request["search_after"] = after
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, nil, err
	}

	size := r.pageSize
	res, err := esapi.SearchRequest{
		Index: []string{r.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}.Do(ctx, r.es)
	if err != nil {
		return nil, nil, storeError("search tasks", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, nil, responseError("search tasks", res)
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source task.Task       `json:"_source"`
				Sort   json.RawMessage `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, nil, storeError("decode tasks", err)
	}

	hits := result.Hits.Hits
	tasks := make([]*task.Task, 0, len(hits))
	for i := range hits {
		tasks = append(tasks, &hits[i].Source)
	}

	var last json.RawMessage
	if len(hits) > 0 {
		last = hits[len(hits)-1].Sort
	}
	return tasks, last, nil
}
