package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("MONGO_TIMEOUT", "")
	t.Setenv("BCRYPT_SALT_ROUNDS", "")

	cfg := Load()
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.False(t, cfg.UseMemoryStore())
	assert.Equal(t, 10*time.Second, cfg.MongoTimeout)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "users", cfg.MongoUsersCollection)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("MONGO_TIMEOUT", "2s")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_WRITE_PER_MIN", "5")
	t.Setenv("BCRYPT_SALT_ROUNDS", "twelve")

	cfg := Load()
	assert.True(t, cfg.UseMemoryStore())
	assert.Equal(t, 2*time.Second, cfg.MongoTimeout)
	assert.False(t, cfg.RateLimitEnabled)
	assert.Equal(t, 5, cfg.RateLimitWritePerMin)
	assert.Equal(t, 10, cfg.BcryptCost, "invalid ints fall back to the default")
}

func TestLists(t *testing.T) {
	cfg := &Config{
		CORSAllowedOrigins: " http://a.test, ,http://b.test ",
		ElasticsearchAddrs: "http://es1:9200,http://es2:9200",
	}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.ESAddrs())
	assert.Empty(t, (&Config{}).CORSOrigins())
}
