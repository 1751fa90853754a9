package db

import (
	"context"
	"log"
	"time"

	redis_v9 "github.com/redis/go-redis/v9"
)

var RedisClient *redis_v9.Client

func InitRedis(addr, password string, dbNum int) {
	client := redis_v9.NewClient(&redis_v9.Options{
		Addr:     addr,
		Password: password,
		DB:       dbNum,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis not reachable at %s, statistics cache disabled: %v", addr, err)
	}
	RedisClient = client
}
