package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/user-orders-service/internal/domain/entity"
)

const defaultTimeout = 3 * time.Second

// UserIndex keeps the public user fields searchable in Elasticsearch.
// Documents are keyed by userId; password and orders are never indexed.
type UserIndex struct {
	ES      *elasticsearch.Client
	Name    string
	Timeout time.Duration
}

func NewUserIndex(es *elasticsearch.Client, name string) *UserIndex {
	return &UserIndex{ES: es, Name: name, Timeout: defaultTimeout}
}

const usersMapping = `{
  "mappings": {
    "properties": {
      "userId":   {"type": "long"},
      "username": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "email":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "fullName": {"properties": {"firstName": {"type": "text"}, "lastName": {"type": "text"}}},
      "age":      {"type": "integer"},
      "isActive": {"type": "boolean"},
      "hobbies":  {"type": "keyword"},
      "address":  {"properties": {"street": {"type": "text"}, "city": {"type": "keyword"}, "country": {"type": "keyword"}}}
    }
  }
}`

// Document is the indexed representation of u.
func Document(u *entity.User) map[string]any {
	hobbies := u.Hobbies
	if hobbies == nil {
		hobbies = []string{}
	}
	return map[string]any{
		"userId":   u.UserID,
		"username": u.Username,
		"email":    u.Email,
		"fullName": map[string]any{"firstName": u.FullName.FirstName, "lastName": u.FullName.LastName},
		"age":      u.Age,
		"isActive": u.IsActive,
		"hobbies":  hobbies,
		"address":  map[string]any{"street": u.Address.Street, "city": u.Address.City, "country": u.Address.Country},
	}
}

func (x *UserIndex) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	t := x.Timeout
	if t <= 0 {
		t = defaultTimeout
	}
	return context.WithTimeout(parent, t)
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *UserIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := x.ctx(ctx)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{x.Name}}.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{Index: x.Name, Body: strings.NewReader(usersMapping)}.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("create index: %s", res.Status())
	}
	return nil
}

func (x *UserIndex) Index(ctx context.Context, u *entity.User) error {
	b, err := json.Marshal(Document(u))
	if err != nil {
		return err
	}
	c, cancel := x.ctx(ctx)
	defer cancel()

	req := esapi.IndexRequest{
		Index:      x.Name,
		DocumentID: strconv.FormatInt(u.UserID, 10),
		Body:       bytes.NewReader(b),
		Refresh:    "false",
	}
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("index user: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index user: %s", res.Status())
	}
	return nil
}

// Remove deletes the user document. A missing document is not an error.
func (x *UserIndex) Remove(ctx context.Context, userID int64) error {
	c, cancel := x.ctx(ctx)
	defer cancel()

	req := esapi.DeleteRequest{Index: x.Name, DocumentID: strconv.FormatInt(userID, 10)}
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove user: %s", res.Status())
	}
	return nil
}

// Search runs a multi_match over username, email and name parts.
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "email", "fullName.firstName", "fullName.lastName"},
			},
		},
		"size": size,
	}
	if q == "" {
		query["query"] = map[string]any{"match_all": map[string]any{}}
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := x.ctx(ctx)
	defer cancel()

	res, err := x.ES.Search(
		x.ES.Search.WithContext(c),
		x.ES.Search.WithIndex(x.Name),
		x.ES.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search users: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
