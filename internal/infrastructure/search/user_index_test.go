package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-orders-service/internal/domain/entity"
)

type call struct {
	Method string
	Path   string
	Body   string
}

type fakeES struct {
	mu     sync.Mutex
	calls  []call
	status int
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, call{Method: r.Method, Path: r.URL.Path, Body: string(b)})
	status := f.status
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if strings.HasSuffix(r.URL.Path, "/_search") {
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"7","_source":{"userId":7,"username":"grace"}}]}}`))
		return
	}
	_, _ = w.Write([]byte(`{}`))
}

func (f *fakeES) setStatus(code int) {
	f.mu.Lock()
	f.status = code
	f.mu.Unlock()
}

func (f *fakeES) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newIndex(t *testing.T, f *fakeES) *UserIndex {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewUserIndex(es, "users")
}

func TestDocumentNeverCarriesSecrets(t *testing.T) {
	doc := Document(&entity.User{
		UserID:   7,
		Username: "grace",
		Password: "hash",
		Orders:   []entity.Order{{ProductName: "pen"}},
	})
	assert.NotContains(t, doc, "password")
	assert.NotContains(t, doc, "orders")
	assert.Equal(t, int64(7), doc["userId"])
	assert.Equal(t, []string{}, doc["hobbies"])
}

func TestIndexAndRemove(t *testing.T) {
	f := &fakeES{}
	idx := newIndex(t, f)
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, &entity.User{UserID: 7, Username: "grace", Password: "hash"}))
	c := f.last()
	assert.Equal(t, http.MethodPut, c.Method)
	assert.Equal(t, "/users/_doc/7", c.Path)
	assert.NotContains(t, c.Body, "hash")

	require.NoError(t, idx.Remove(ctx, 7))
	c = f.last()
	assert.Equal(t, http.MethodDelete, c.Method)
	assert.Equal(t, "/users/_doc/7", c.Path)

	f.setStatus(http.StatusNotFound)
	assert.NoError(t, idx.Remove(ctx, 8))

	f.setStatus(http.StatusInternalServerError)
	assert.Error(t, idx.Index(ctx, &entity.User{UserID: 9}))
}

func TestSearch(t *testing.T) {
	f := &fakeES{}
	idx := newIndex(t, f)

	hits, err := idx.Search(context.Background(), "grace", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "grace", hits[0]["username"])

	c := f.last()
	assert.Equal(t, "/users/_search", c.Path)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.Body), &body))
	assert.EqualValues(t, 5, body["size"])
	assert.Contains(t, c.Body, "multi_match")
}
