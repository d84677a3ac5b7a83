package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/user-orders-service/internal/interface/middleware"
)

// DebugModule exposes expvar and Prometheus metrics, rate-limited per IP.
// Private clients (scrapers inside the network) bypass the limit.
type DebugModule struct {
	Redis   *redis.Client
	Metrics *middleware.HTTPMetrics
}

func NewDebugModule(rdb *redis.Client, metrics *middleware.HTTPMetrics) *DebugModule {
	return &DebugModule{Redis: rdb, Metrics: metrics}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	if m.Metrics != nil {
		rg.GET("/debug/metrics", rl, gin.WrapH(m.Metrics.Handler()))
	}
}
