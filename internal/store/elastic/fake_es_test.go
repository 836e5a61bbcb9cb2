package elastic

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/require"
)

// fakeES implements the slice of the Elasticsearch REST API the adapters
// use, keeping documents in insertion order per index.
type fakeES struct {
	mu       sync.Mutex
	indices  map[string]*fakeIndex
	failWith int
	requests []*http.Request
}

type fakeIndex struct {
	mapping string
	order   []string
	docs    map[string]map[string]any
}

func newFakeES() *fakeES {
	return &fakeES{indices: map[string]*fakeIndex{}}
}

func newTestServer(t *testing.T, fake *fakeES) string {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return srv.URL
}

// newTestClient starts fake behind an httptest server and returns a client
// pointed at it.
func newTestClient(t *testing.T, fake *fakeES) *elasticsearch.Client {
	t.Helper()

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  []string{newTestServer(t, fake)},
		MaxRetries: 1,
	})
	require.NoError(t, err)
	return es
}

func (f *fakeES) index(name string) *fakeIndex {
	idx, ok := f.indices[name]
	if !ok {
		idx = &fakeIndex{docs: map[string]map[string]any{}}
		f.indices[name] = idx
	}
	return idx
}

func (f *fakeES) setFailure(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = status
}

func (f *fakeES) lastRequest(method, pathPrefix string) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		r := f.requests[i]
		if (method == "" || r.Method == method) && strings.HasPrefix(r.URL.Path, pathPrefix) {
			return r
		}
	}
	return nil
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)

	if f.failWith != 0 {
		writeJSON(w, f.failWith, map[string]any{"error": map[string]any{"type": "unavailable"}})
		return
	}

	body, _ := io.ReadAll(r.Body)
	parts := pathSegments(r.URL)

	if len(parts) >= 2 && r.Method != http.MethodPut {
		if _, ok := f.indices[parts[0]]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]any{"type": "index_not_found_exception"},
			})
			return
		}
	}

	switch {
	case r.URL.Path == "/":
		writeJSON(w, http.StatusOK, map[string]any{
			"cluster_name": "fake",
			"version":      map[string]any{"number": "8.15.0"},
			"tagline":      "You Know, for Search",
		})

	case len(parts) == 1 && r.Method == http.MethodHead:
		if _, ok := f.indices[parts[0]]; ok {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}

	case len(parts) == 1 && r.Method == http.MethodPut:
		if _, ok := f.indices[parts[0]]; ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": map[string]any{"type": "resource_already_exists_exception"},
			})
			return
		}
		f.index(parts[0]).mapping = string(body)
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "index": parts[0]})

	case len(parts) == 2 && parts[1] == "_search":
		f.search(w, parts[0], r.URL.Query().Get("size"), body)

	case len(parts) == 3 && parts[1] == "_create" && r.Method == http.MethodPut:
		idx := f.index(parts[0])
		if _, ok := idx.docs[parts[2]]; ok {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error": map[string]any{"type": "version_conflict_engine_exception"},
			})
			return
		}
		var doc map[string]any
		_ = json.Unmarshal(body, &doc)
		idx.docs[parts[2]] = doc
		idx.order = append(idx.order, parts[2])
		writeJSON(w, http.StatusCreated, map[string]any{"_id": parts[2], "result": "created"})

	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodGet:
		doc, ok := f.index(parts[0]).docs[parts[2]]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"_id": parts[2], "found": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"_id": parts[2], "found": true, "_source": doc})

	case len(parts) == 3 && parts[1] == "_update" && r.Method == http.MethodPost:
		doc, ok := f.index(parts[0]).docs[parts[2]]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]any{"type": "document_missing_exception"},
			})
			return
		}
		var update struct {
			Doc map[string]any `json:"doc"`
		}
		_ = json.Unmarshal(body, &update)
		for k, v := range update.Doc {
			doc[k] = v
		}
		writeJSON(w, http.StatusOK, map[string]any{"_id": parts[2], "result": "updated"})

	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodDelete:
		idx := f.index(parts[0])
		if _, ok := idx.docs[parts[2]]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"_id": parts[2], "result": "not_found"})
			return
		}
		delete(idx.docs, parts[2])
		for i, id := range idx.order {
			if id == parts[2] {
				idx.order = append(idx.order[:i], idx.order[i+1:]...)
				break
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"_id": parts[2], "result": "deleted"})

	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported " + r.Method + " " + r.URL.Path})
	}
}

// search returns documents in insertion order, which the tests keep equal
// to created_at order. search_after resumes after the document whose id is
// the last sort value.
func (f *fakeES) search(w http.ResponseWriter, index, size string, body []byte) {
	var req struct {
		Query struct {
			Term map[string]string `json:"term"`
		} `json:"query"`
		SearchAfter []any `json:"search_after"`
	}
	_ = json.Unmarshal(body, &req)

	limit, err := strconv.Atoi(size)
	if err != nil {
		limit = 10
	}

	idx := f.index(index)
	matched := []map[string]any{}
	for _, id := range idx.order {
		doc := idx.docs[id]
		if username, ok := req.Query.Term["username"]; ok && doc["username"] != username {
			continue
		}
		matched = append(matched, map[string]any{
			"_id":     id,
			"_source": doc,
			"sort":    []any{doc["created_at"], id},
		})
	}

	start := 0
	if n := len(req.SearchAfter); n > 0 {
		for i, hit := range matched {
			if hit["_id"] == req.SearchAfter[n-1] {
				start = i + 1
				break
			}
		}
	}
	hits := matched[start:]
	if len(hits) > limit {
		hits = hits[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hits": map[string]any{
			"total": map[string]any{"value": len(matched)},
			"hits":  hits,
		},
	})
}

// pathSegments splits the escaped path so an escaped '/' stays inside its
// segment.
func pathSegments(u *url.URL) []string {
	parts := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	for i, p := range parts {
		if unescaped, err := url.PathUnescape(p); err == nil {
			parts[i] = unescaped
		}
	}
	return parts
}

func (f *fakeES) searchCount(index string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r.URL.Path, "/"+index+"/_search") {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
