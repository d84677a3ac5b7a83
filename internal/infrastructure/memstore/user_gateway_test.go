package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/oksasatya/user-orders-service/internal/domain/entity"
	"github.com/oksasatya/user-orders-service/internal/domain/repository"
)

func sampleUser(id int64, username string) *entity.User {
	return &entity.User{
		UserID:   id,
		Username: username,
		Password: "hash",
		FullName: entity.FullName{FirstName: "Ada", LastName: "Lovelace"},
		Age:      36,
		Email:    username + "@example.com",
		IsActive: true,
		Hobbies:  []string{"math"},
		Address:  entity.Address{Street: "1 Main", City: "London", Country: "UK"},
		Orders:   []entity.Order{},
	}
}

func TestInsertAndFindOne(t *testing.T) {
	ctx := context.Background()
	g := NewUserGateway()

	u := sampleUser(1, "ada")
	require.NoError(t, g.InsertOne(ctx, u))
	assert.False(t, u.ID.IsZero())

	got, err := g.FindOne(ctx, bson.M{"userId": int64(1)}, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ada", got.Username)
	assert.Equal(t, "hash", got.Password)
	assert.Equal(t, "London", got.Address.City)

	missing, err := g.FindOne(ctx, bson.M{"userId": int64(2)}, nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInsertOne_UniqueIndexes(t *testing.T) {
	ctx := context.Background()
	g := NewUserGateway()
	require.NoError(t, g.InsertOne(ctx, sampleUser(1, "ada")))

	err := g.InsertOne(ctx, sampleUser(1, "grace"))
	assert.True(t, errors.Is(err, repository.ErrDuplicateKey))

	err = g.InsertOne(ctx, sampleUser(2, "ada"))
	assert.True(t, errors.Is(err, repository.ErrDuplicateKey))

	assert.Equal(t, 1, g.Len())
}

func TestFind_Projection(t *testing.T) {
	ctx := context.Background()
	g := NewUserGateway()
	require.NoError(t, g.InsertOne(ctx, sampleUser(1, "ada")))
	require.NoError(t, g.InsertOne(ctx, sampleUser(2, "grace")))

	users, err := g.Find(ctx, nil, bson.M{"username": 1, "email": 1})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ada", users[0].Username)
	assert.Equal(t, "grace", users[1].Username)
	assert.Zero(t, users[0].UserID)
	assert.Empty(t, users[0].Password)
	assert.False(t, users[0].ID.IsZero())

	excluded, err := g.FindOne(ctx, bson.M{"userId": 2}, bson.M{"password": 0})
	require.NoError(t, err)
	assert.Empty(t, excluded.Password)
	assert.Equal(t, int64(2), excluded.UserID)
}

func TestUpdateOne_SetAndPush(t *testing.T) {
	ctx := context.Background()
	g := NewUserGateway()
	require.NoError(t, g.InsertOne(ctx, sampleUser(1, "ada")))

	age := 37
	n, err := g.UpdateOne(ctx, bson.M{"userId": int64(1)}, bson.M{"$set": entity.UserPatch{Age: &age}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = g.UpdateOne(ctx, bson.M{"userId": int64(1)}, bson.M{"$push": bson.M{"orders": entity.Order{ProductName: "pen", Price: 2.5, Quantity: 4}}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := g.FindOne(ctx, bson.M{"userId": int64(1)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 37, got.Age)
	assert.Equal(t, "ada", got.Username)
	require.Len(t, got.Orders, 1)
	assert.Equal(t, "pen", got.Orders[0].ProductName)

	n, err = g.UpdateOne(ctx, bson.M{"userId": int64(9)}, bson.M{"$set": bson.M{"age": 1}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateOne_RejectsDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	g := NewUserGateway()
	require.NoError(t, g.InsertOne(ctx, sampleUser(1, "ada")))
	require.NoError(t, g.InsertOne(ctx, sampleUser(2, "grace")))

	_, err := g.UpdateOne(ctx, bson.M{"userId": int64(2)}, bson.M{"$set": bson.M{"username": "ada"}})
	assert.True(t, errors.Is(err, repository.ErrDuplicateKey))
}

func TestUpdateOne_UnsupportedOperator(t *testing.T) {
	ctx := context.Background()
	g := NewUserGateway()
	require.NoError(t, g.InsertOne(ctx, sampleUser(1, "ada")))

	_, err := g.UpdateOne(ctx, bson.M{"userId": int64(1)}, bson.M{"$inc": bson.M{"age": 1}})
	assert.Error(t, err)
}

func TestDeleteOne(t *testing.T) {
	ctx := context.Background()
	g := NewUserGateway()
	require.NoError(t, g.InsertOne(ctx, sampleUser(1, "ada")))

	n, err := g.DeleteOne(ctx, bson.M{"userId": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = g.DeleteOne(ctx, bson.M{"userId": int64(1)})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, g.Len())
}

func TestAggregate_TotalPrice(t *testing.T) {
	ctx := context.Background()
	g := NewUserGateway()
	u := sampleUser(1, "ada")
	u.Orders = []entity.Order{{ProductName: "a", Price: 10, Quantity: 2}, {ProductName: "b", Price: 5, Quantity: 3}}
	require.NoError(t, g.InsertOne(ctx, u))
	require.NoError(t, g.InsertOne(ctx, sampleUser(2, "grace")))

	pipeline := func(id int64) []bson.D {
		return []bson.D{
			{{Key: "$match", Value: bson.D{{Key: "userId", Value: id}}}},
			{{Key: "$unwind", Value: "$orders"}},
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: nil},
				{Key: "totalPrice", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$multiply", Value: bson.A{"$orders.price", "$orders.quantity"}}}}}},
			}}},
			{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
		}
	}

	res, err := g.Aggregate(ctx, pipeline(1))
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 35.0, res[0]["totalPrice"])
	_, hasID := res[0]["_id"]
	assert.False(t, hasID)

	res, err = g.Aggregate(ctx, pipeline(2))
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestAggregate_UnsupportedStage(t *testing.T) {
	g := NewUserGateway()
	_, err := g.Aggregate(context.Background(), []bson.D{{{Key: "$lookup", Value: bson.D{}}}})
	assert.Error(t, err)
}

func TestWithError(t *testing.T) {
	boom := errors.New("boom")
	g := NewUserGateway().WithError(boom)

	_, err := g.Find(context.Background(), nil, nil)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, g.Ping(context.Background()), boom)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewUserGateway().FindOne(ctx, bson.M{"userId": 1}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
