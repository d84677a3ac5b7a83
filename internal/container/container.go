package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-orders-service/config"
	"github.com/oksasatya/user-orders-service/internal/domain/repository"
	"github.com/oksasatya/user-orders-service/internal/infrastructure/search"
	"github.com/oksasatya/user-orders-service/internal/interface/middleware"
	"github.com/oksasatya/user-orders-service/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.
// Optional infra (redis, rabbit, es) stays nil when not configured.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	userGateway repository.UserGateway
	redisClient *redis.Client

	rabbitPub   *helpers.RabbitPublisher
	userIndex   *search.UserIndex
	httpMetrics *middleware.HTTPMetrics
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config {
	if cfg == nil {
		cfg = config.Load()
	}
	return cfg
}
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger
}
func SetUserGateway(g repository.UserGateway)  { userGateway = g }
func GetUserGateway() repository.UserGateway   { return userGateway }
func SetRedis(r *redis.Client)                 { redisClient = r }
func GetRedis() *redis.Client                  { return redisClient }
func SetRabbitPub(p *helpers.RabbitPublisher)  { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher   { return rabbitPub }
func SetUserIndex(x *search.UserIndex)         { userIndex = x }
func GetUserIndex() *search.UserIndex          { return userIndex }
func SetHTTPMetrics(m *middleware.HTTPMetrics) { httpMetrics = m }
func GetHTTPMetrics() *middleware.HTTPMetrics  { return httpMetrics }

// Reset clears every singleton. Tests use it between cases.
func Reset() {
	cfg, logger, userGateway, redisClient = nil, nil, nil, nil
	rabbitPub, userIndex, httpMetrics = nil, nil, nil
}
