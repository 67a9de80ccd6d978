package config

import (
	"context"
	"crypto/tls"
	"net"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisOptions builds client options from REDIS_HOST/REDIS_PORT, falling back
// to REDIS_ADDR and then localhost:6379.  REDIS_TLS turns on TLS;
// REDIS_TLS_INSECURE skips certificate checks for self-signed dev servers.
func redisOptions() *redis.Options {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = net.JoinHostPort(host, port)
	}
	opts := &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
	}
	if envBool("REDIS_TLS", false) {
		host, _, _ := net.SplitHostPort(addr)
		opts.TLSConfig = &tls.Config{
			ServerName:         host,
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: envBool("REDIS_TLS_INSECURE", false),
		}
	}
	return opts
}

// NewRedisClient returns a connected client, or nil when the server does not
// answer a ping within two seconds.  Callers treat nil as "no limiter, no
// cache".
func NewRedisClient() *redis.Client {
	client := redis.NewClient(redisOptions())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
