package memstore

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/user-orders-service/internal/domain/entity"
	"github.com/oksasatya/user-orders-service/internal/domain/repository"
)

// UserGateway is an in-process document store for the users collection. It is
// safe for concurrent use and is intended for tests and local development.
// Documents are kept in their BSON map form so filters, projections, updates
// and pipelines behave like they do against MongoDB for the supported subset.
type UserGateway struct {
	mu     sync.RWMutex
	docs   []bson.M
	unique []string
	err    error
}

// NewUserGateway creates an empty store with unique indexes on userId and username.
func NewUserGateway() *UserGateway {
	return &UserGateway{unique: []string{"userId", "username"}}
}

// WithError makes every subsequent call fail with err.
func (g *UserGateway) WithError(err error) *UserGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
	return g
}

// Len returns the number of stored documents.
func (g *UserGateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.docs)
}

// Raw returns a copy of the stored document matching filter, or nil.
func (g *UserGateway) Raw(filter bson.M) bson.M {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, doc := range g.docs {
		if ok, _ := matches(doc, filter); ok {
			cp, _ := deepCopy(doc)
			return cp
		}
	}
	return nil
}

func (g *UserGateway) Find(ctx context.Context, filter bson.M, projection bson.M) ([]entity.User, error) {
	if err := g.check(ctx); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	users := make([]entity.User, 0)
	for _, doc := range g.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		u, err := decodeUser(project(doc, projection))
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (g *UserGateway) FindOne(ctx context.Context, filter bson.M, projection bson.M) (*entity.User, error) {
	if err := g.check(ctx); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, doc := range g.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		u, err := decodeUser(project(doc, projection))
		if err != nil {
			return nil, err
		}
		return &u, nil
	}
	return nil, nil
}

func (g *UserGateway) InsertOne(ctx context.Context, u *entity.User) error {
	if err := g.check(ctx); err != nil {
		return err
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	doc, err := toDocument(u)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkUniqueLocked(doc, -1); err != nil {
		return err
	}
	g.docs = append(g.docs, doc)
	return nil
}

func (g *UserGateway) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (int64, error) {
	if err := g.check(ctx); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, doc := range g.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		updated, err := deepCopy(doc)
		if err != nil {
			return 0, err
		}
		if err := applyUpdate(updated, update); err != nil {
			return 0, err
		}
		if err := g.checkUniqueLocked(updated, i); err != nil {
			return 0, err
		}
		g.docs[i] = updated
		return 1, nil
	}
	return 0, nil
}

func (g *UserGateway) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	if err := g.check(ctx); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, doc := range g.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			g.docs = append(g.docs[:i], g.docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (g *UserGateway) Aggregate(ctx context.Context, pipeline []bson.D) ([]bson.M, error) {
	if err := g.check(ctx); err != nil {
		return nil, err
	}
	g.mu.RLock()
	docs := make([]bson.M, 0, len(g.docs))
	for _, doc := range g.docs {
		cp, err := deepCopy(doc)
		if err != nil {
			g.mu.RUnlock()
			return nil, err
		}
		docs = append(docs, cp)
	}
	g.mu.RUnlock()

	return runPipeline(docs, pipeline)
}

func (g *UserGateway) Ping(ctx context.Context) error {
	return g.check(ctx)
}

func (g *UserGateway) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.err
}

// checkUniqueLocked rejects doc when another document (index skip excluded)
// already holds the same value for a unique field.
func (g *UserGateway) checkUniqueLocked(doc bson.M, skip int) error {
	for _, field := range g.unique {
		want, ok := doc[field]
		if !ok {
			continue
		}
		for i, other := range g.docs {
			if i == skip {
				continue
			}
			if got, ok := other[field]; ok && valuesEqual(got, want) {
				return fmt.Errorf("%w: %s %v", repository.ErrDuplicateKey, field, want)
			}
		}
	}
	return nil
}

var _ repository.UserGateway = (*UserGateway)(nil)
