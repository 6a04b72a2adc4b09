// Package redisstore shares credentials across replicas through Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/mpsdk/credential"
	"github.com/unkn0wn-root/mpsdk/internal/wire"
)

var ErrNilClient = errors.New("redisstore: nil client")

// Store keeps one framed credential per name under "cred:<ns>:<name>".
// Keys expire when the credential does, so a restarted replica never adopts
// an expired value.
type Store struct {
	rdb redis.UniversalClient
	ns  string // logical namespace, e.g. the platform app id
	now func() time.Time
}

var _ credential.Store = (*Store)(nil)

func New(client redis.UniversalClient, namespace string) (*Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &Store{rdb: client, ns: namespace, now: time.Now}, nil
}

func (s *Store) key(name string) string { return "cred:" + s.ns + ":" + name }

// Load returns the stored credential. Missing keys are a miss.
// Corrupt entries are deleted and reported as a miss.
func (s *Store) Load(ctx context.Context, name string) (credential.Credential, bool, error) {
	k := s.key(name)
	b, err := s.rdb.Get(ctx, k).Bytes()
	if err == redis.Nil {
		return credential.Credential{}, false, nil
	}
	if err != nil {
		return credential.Credential{}, false, err
	}
	v, exp, err := wire.DecodeCredential(b)
	if err != nil {
		_ = s.rdb.Del(ctx, k).Err() // self-heal corrupt
		return credential.Credential{}, false, nil
	}
	return credential.Credential{Value: v, ExpiresAt: exp}, true, nil
}

// Save writes cred with a TTL equal to its remaining lifetime.
// Already-expired credentials are not written.
func (s *Store) Save(ctx context.Context, name string, cred credential.Credential) error {
	ttl := cred.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, s.key(name), wire.EncodeCredential(cred.Value, cred.ExpiresAt), ttl).Err(); err != nil {
		return fmt.Errorf("redis credential save: %w", err)
	}
	return nil
}
