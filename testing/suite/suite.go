// Package suite provisions the external services an integration test
// needs and tears them down with the test.
package suite

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

// startupTimeout bounds container start plus the first successful ping.
const startupTimeout = 2 * time.Minute

// containerTTLSeconds force-removes the container in case the test
// process dies before cleanup runs.
const containerTTLSeconds = 120

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Redis *redis.Client
}

// New builds a suite backed by a disposable Redis container.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	t.Cleanup(cancel)

	s := &Suite{
		T:      t,
		Logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
	s.Redis = s.startRedis(ctx)

	return ctx, s
}

// startRedis runs a throwaway redis container and waits until it
// answers PING, then hands out a client on a flushed database.
func (that *Suite) startRedis(ctx context.Context) *redis.Client {
	that.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		that.Fatalf("could not connect to docker: %v", err)
	}
	pool.MaxWait = startupTimeout

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		that.Fatalf("could not start redis container: %v", err)
	}

	_ = resource.Expire(containerTTLSeconds)

	that.Cleanup(func() {
		if purgeErr := pool.Purge(resource); purgeErr != nil {
			that.Logf("could not purge redis container: %v", purgeErr)
		}
	})

	addr := resource.GetHostPort("6379/tcp")

	// the container may take a moment to accept connections
	var client *redis.Client
	if err = pool.Retry(func() error {
		client = redis.NewClient(&redis.Options{Addr: addr})
		return client.Ping(ctx).Err()
	}); err != nil {
		that.Fatalf("could not connect to redis at %s: %v", addr, err)
	}

	if err = client.FlushDB(ctx).Err(); err != nil {
		that.Fatalf("could not flush redis: %v", err)
	}

	return client
}
