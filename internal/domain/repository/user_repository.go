package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/oksasatya/user-orders-service/internal/domain/entity"
)

// ErrDuplicateKey is returned by gateways when a write violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// UserGateway is a thin facade over the users collection of a document store.
// It does not interpret domain semantics: filters, projections, updates and
// pipelines are passed through in the store's own query language.
type UserGateway interface {
	Find(ctx context.Context, filter bson.M, projection bson.M) ([]entity.User, error)
	// FindOne returns (nil, nil) when no document matches.
	FindOne(ctx context.Context, filter bson.M, projection bson.M) (*entity.User, error)
	InsertOne(ctx context.Context, u *entity.User) error
	UpdateOne(ctx context.Context, filter bson.M, update bson.M) (matched int64, err error)
	DeleteOne(ctx context.Context, filter bson.M) (deleted int64, err error)
	Aggregate(ctx context.Context, pipeline []bson.D) ([]bson.M, error)
	Ping(ctx context.Context) error
}
