package config

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis connects the client that backs the active-session slots
// and the timer event pub/sub. REDIS_DB selects a database when the
// address form is used.
func InitRedis() error {
	val := os.Getenv("REDIS_ADDR")
	if val == "" {
		val = os.Getenv("REDIS_URI")
	}
	if val == "" {
		val = os.Getenv("REDIS_URL")
	}
	if val == "" {
		return errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set")
	}

	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		opt, err := redis.ParseURL(val)
		if err != nil {
			return err
		}
		RedisClient = redis.NewClient(opt)
	} else {
		db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		RedisClient = redis.NewClient(&redis.Options{Addr: val, DB: db})
	}

	_, err := RedisClient.Ping(context.Background()).Result()
	return err
}
