package sessions

import (
	"context"
	"testing"
	"time"

	"fhirfly-backend/internal/cache"
	"fhirfly-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemory()
	s := NewStore(backend)

	user := models.User{AbhaID: "12345678901234", Name: "User 1234", Role: models.RoleABHA}
	require.NoError(t, s.Save(ctx, "abc", user, time.Hour))

	got, err := s.Load(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user, *got)

	// stored under the session prefix
	var raw models.User
	ok, _ := backend.Get(ctx, "session:abc", &raw)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "abc"))
	got, err = s.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadMissing(t *testing.T) {
	got, err := NewStore(cache.NewMemory()).Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}
