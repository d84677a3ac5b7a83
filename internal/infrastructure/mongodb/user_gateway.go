package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/oksasatya/user-orders-service/internal/domain/entity"
	"github.com/oksasatya/user-orders-service/internal/domain/repository"
)

type UserGateway struct {
	coll *mongo.Collection
}

func NewUserGateway(db *mongo.Database, collection string) *UserGateway {
	return &UserGateway{coll: db.Collection(collection)}
}

func (g *UserGateway) Find(ctx context.Context, filter bson.M, projection bson.M) ([]entity.User, error) {
	opts := options.Find()
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}
	cur, err := g.coll.Find(ctx, nonNil(filter), opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	users := make([]entity.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (g *UserGateway) FindOne(ctx context.Context, filter bson.M, projection bson.M) (*entity.User, error) {
	opts := options.FindOne()
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}
	u := &entity.User{}
	if err := g.coll.FindOne(ctx, nonNil(filter), opts).Decode(u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (g *UserGateway) InsertOne(ctx context.Context, u *entity.User) error {
	_, err := g.coll.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", repository.ErrDuplicateKey, err)
		}
		return err
	}
	return nil
}

func (g *UserGateway) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (int64, error) {
	res, err := g.coll.UpdateOne(ctx, nonNil(filter), update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: %v", repository.ErrDuplicateKey, err)
		}
		return 0, err
	}
	return res.MatchedCount, nil
}

func (g *UserGateway) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	res, err := g.coll.DeleteOne(ctx, nonNil(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (g *UserGateway) Aggregate(ctx context.Context, pipeline []bson.D) ([]bson.M, error) {
	cur, err := g.coll.Aggregate(ctx, mongo.Pipeline(pipeline))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	out := make([]bson.M, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *UserGateway) Ping(ctx context.Context) error {
	return g.coll.Database().Client().Ping(ctx, readpref.Primary())
}

// the driver rejects a nil filter document
func nonNil(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

var _ repository.UserGateway = (*UserGateway)(nil)
