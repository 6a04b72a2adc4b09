// Package redis backs respcache.Provided with Redis so every replica behind
// the webhook endpoint sees the replies the others published.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/mpsdk/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

type Redis struct {
	rdb   goredis.UniversalClient
	owned bool
}

var (
	_ pr.Provider = (*Redis)(nil)
	_ pr.Taker    = (*Redis)(nil)
)

type Config struct {
	Client goredis.UniversalClient
	// CloseClient hands the client to the provider; Close then closes it.
	CloseClient bool
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, owned: cfg.CloseClient}, nil
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return reply(p.rdb.Get(ctx, key))
}

// Take uses GETDEL (Redis >= 6.2).
func (p *Redis) Take(ctx context.Context, key string) ([]byte, bool, error) {
	return reply(p.rdb.GetDel(ctx, key))
}

// reply maps redis.Nil to a miss.
func reply(cmd *goredis.StringCmd) ([]byte, bool, error) {
	b, err := cmd.Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return b, true, nil
}

// Set never reports pressure; Redis either stores the reply or errors.
// A non-positive ttl stores without expiry.
func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if err := p.rdb.Set(ctx, key, value, max(ttl, 0)).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, key).Err()
}

// Close is idempotent and leaves borrowed clients open.
func (p *Redis) Close(context.Context) error {
	if !p.owned {
		return nil
	}
	if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
