// Package sessions keeps the user behind each issued token.
package sessions

import (
	"context"
	"time"

	"fhirfly-backend/internal/cache"
	"fhirfly-backend/internal/models"
)

const keyPrefix = "session:"

type Store struct {
	backend cache.Store
}

func NewStore(backend cache.Store) *Store {
	return &Store{backend: backend}
}

func (s *Store) Save(ctx context.Context, id string, user models.User, ttl time.Duration) error {
	return s.backend.Set(ctx, keyPrefix+id, user, ttl)
}

// Load returns nil without error when the session does not exist or has expired.
func (s *Store) Load(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	ok, err := s.backend.Get(ctx, keyPrefix+id, &user)
	if err != nil || !ok {
		return nil, err
	}
	return &user, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.backend.Delete(ctx, keyPrefix+id)
}
