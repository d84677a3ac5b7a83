package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/user-orders-service/config"
	"github.com/oksasatya/user-orders-service/internal/application"
	"github.com/oksasatya/user-orders-service/internal/domain/entity"
	"github.com/oksasatya/user-orders-service/internal/infrastructure/mongodb"
	"github.com/oksasatya/user-orders-service/pkg/helpers"
)

// seed users are created through the service so passwords are hashed
// exactly as they are for API writes.
var demoUsers = []entity.User{
	{
		UserID:   1,
		Username: "demoUser",
		Password: "password123",
		FullName: entity.FullName{FirstName: "Demo", LastName: "User"},
		Age:      28,
		Email:    "demo@example.com",
		IsActive: true,
		Hobbies:  []string{"reading", "cycling"},
		Address:  entity.Address{Street: "1 Main St", City: "Springfield", Country: "USA"},
		Orders: []entity.Order{
			{ProductName: "Notebook", Price: 10, Quantity: 2},
			{ProductName: "Pen", Price: 5, Quantity: 3},
		},
	},
	{
		UserID:   2,
		Username: "inactiveUser",
		Password: "password123",
		FullName: entity.FullName{FirstName: "Idle", LastName: "Person"},
		Age:      41,
		Email:    "idle@example.com",
		IsActive: false,
		Hobbies:  []string{},
		Address:  entity.Address{Street: "9 Elm Rd", City: "Shelbyville", Country: "USA"},
	},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := mongodb.NewClient(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		logger.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	gw := mongodb.NewUserGateway(client.Database(cfg.MongoDatabase), cfg.MongoUsersCollection)
	svc := application.NewService(gw, logger, cfg.BcryptCost)

	for i := range demoUsers {
		u := demoUsers[i]
		created, err := svc.CreateUser(ctx, &u)
		switch {
		case errors.Is(err, application.ErrDuplicateUser):
			fmt.Printf("user %d (%s) already exists, skipped\n", u.UserID, u.Username)
			continue
		case err != nil:
			logger.Fatalf("failed to seed user %d: %v", u.UserID, err)
		}
		total, err := svc.TotalOrderValue(ctx, created.UserID)
		if err != nil {
			logger.Fatalf("failed to total orders for user %d: %v", created.UserID, err)
		}
		fmt.Printf("seeded user: userId=%d username=%s email=%s password=%s orders=%d total=%.2f\n",
			created.UserID, created.Username, created.Email, u.Password, len(created.Orders), total)
	}
}
