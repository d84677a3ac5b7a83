package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/user-orders-service/internal/interface/http"
	"github.com/oksasatya/user-orders-service/internal/interface/middleware"
)

// UserModule wires the user and order routes under /users.
// Reads are limited per client IP, writes per client IP and per target user.
// There is no authentication: any caller may perform any operation.
type UserModule struct {
	Handler     *handlers.UserHandler
	Redis       *redis.Client
	Logger      *logrus.Logger
	ReadPerMin  int
	WritePerMin int
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, logger *logrus.Logger, readPerMin, writePerMin int) *UserModule {
	return &UserModule{Handler: h, Redis: rdb, Logger: logger, ReadPerMin: readPerMin, WritePerMin: writePerMin}
}

func (m *UserModule) limiter(max int, key middleware.KeyFunc) gin.HandlerFunc {
	l := &middleware.Limiter{Redis: m.Redis, Logger: m.Logger, Max: max, Window: time.Minute, Key: key}
	return l.Handler()
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	read := m.limiter(m.ReadPerMin, middleware.KeyByIP())
	write := m.limiter(m.WritePerMin, middleware.KeyByIPAndPath())
	perUser := m.limiter(m.WritePerMin, middleware.KeyByUserParam())

	users := rg.Group("/users")
	{
		users.POST("", write, m.Handler.CreateUser)
		users.GET("", read, m.Handler.GetAllUsers)
		users.GET("/search", read, m.Handler.Search)
		users.GET("/:userId", read, m.Handler.GetUser)
		users.PUT("/:userId", write, perUser, m.Handler.UpdateUser)
		users.DELETE("/:userId", write, perUser, m.Handler.DeleteUser)
		users.PUT("/:userId/orders", write, perUser, m.Handler.AppendOrder)
		users.GET("/:userId/orders", read, m.Handler.ListOrders)
		users.GET("/:userId/orders/total-price", read, m.Handler.TotalOrderValue)
	}
}
