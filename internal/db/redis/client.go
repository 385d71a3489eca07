package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/rueidis"

	"github.com/arkwith7/abekm/internal/db"
)

var _ db.Store = (*Store)(nil)

// DefaultClientName is reported by CLIENT LIST for connections opened by the engine.
const DefaultClientName = "abekm-search"

// Config holds connection parameters for the chunk store.
type Config struct {
	Addrs      []string
	Username   string
	Password   string
	DB         int
	ClientName string
}

// Store is the chunk store on Redis 8 with the query engine (FT.*).
type Store struct {
	searcher
	client rueidis.Client
}

// NewStore dials the chunk store. Client-side caching stays off since every
// read is an FT.SEARCH or a short-lived embedding cache entry.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}
	name := cfg.ClientName
	if name == "" {
		name = DefaultClientName
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   name,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH replies are parsed as RESP2 arrays
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect %v: %w", cfg.Addrs, err)
	}
	return newStore(client), nil
}

func newStore(client rueidis.Client) *Store {
	return &Store{searcher: searcher{conn: client}, client: client}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

func (s *Store) Close() { s.client.Close() }

// WaitForReady pings with a doubling backoff capped at one second until the
// store answers or timeout elapses.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	delay := 50 * time.Millisecond
	for {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("redis not ready after %s: %w", timeout, err)
		case <-t.C:
		}
		delay = min(2*delay, time.Second)
	}
}

// Session pins one pooled connection until Release. Each retrieval task takes its own.
func (s *Store) Session(ctx context.Context) (db.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dc, release := s.client.Dedicate()
	return &session{searcher: searcher{conn: dc}, release: release}, nil
}

type session struct {
	searcher
	release func()
	once    sync.Once
}

// Release returns the connection to the pool; later calls are no-ops.
func (s *session) Release() { s.once.Do(s.release) }

// searcher issues commands over the shared client or a dedicated connection.
type searcher struct {
	conn rueidis.CoreClient
}

func (s searcher) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.conn.Do(ctx, cmd)
}

func (s searcher) b() rueidis.Builder { return s.conn.B() }

// isRedisErr reports whether err is a server error whose message contains substr, ignoring case.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	return ok && strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
