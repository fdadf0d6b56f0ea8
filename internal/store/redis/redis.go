package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"docsync/internal/store"
)

const keyPrefix = "doc:"

// Store persists document content in Redis, one string value per document.
type Store struct {
	rdb *goredis.Client
}

func New(addr string) *Store {
	return &Store{rdb: goredis.NewClient(&goredis.Options{Addr: addr})}
}

// NewWithClient wraps an existing client (used in tests with miniredis).
func NewWithClient(rdb *goredis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Load(ctx context.Context, id string) (string, error) {
	content, err := s.rdb.Get(ctx, keyPrefix+id).Result()
	if errors.Is(err, goredis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

func (s *Store) Save(ctx context.Context, id string, content string) error {
	// XX so a document deleted by the CRUD system is not resurrected by a
	// straggling editor.
	set, err := s.rdb.SetXX(ctx, keyPrefix+id, content, 0).Result()
	if err != nil {
		return err
	}
	if !set {
		return store.ErrNotFound
	}
	return nil
}

// Create seeds a document, mirroring what the CRUD system does on its side.
func (s *Store) Create(ctx context.Context, id string, content string) error {
	return s.rdb.Set(ctx, keyPrefix+id, content, 0).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
