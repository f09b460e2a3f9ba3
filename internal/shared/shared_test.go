package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 45)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 45, p.Total)
	assert.Equal(t, 3, p.TotalPages)
}

func TestNewPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 0, 5)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 1, p.TotalPages)
}

func TestValidateStruct(t *testing.T) {
	type form struct {
		Name  string `validate:"required"`
		Email string `validate:"required,email"`
	}

	require.NoError(t, ValidateStruct(form{Name: "Acme", Email: "ops@acme.test"}))

	err := ValidateStruct(form{Email: "not-an-email"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name")
	assert.Contains(t, err.Error(), "Email")
}

func newTestSessionManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "sid", time.Hour, false), mr
}

func TestNewSessionCarriesID(t *testing.T) {
	sm, _ := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(req.Context(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID, "cookie-less requests must get a session ID up front")
}

func TestRotateDropsOldRedisKey(t *testing.T) {
	sm, mr := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(req.Context(), req)
	require.NoError(t, err)

	sess.Set("k", "v")
	require.NoError(t, sm.Commit(context.Background(), httptest.NewRecorder(), sess))
	oldID := sess.ID
	require.True(t, mr.Exists("session:"+oldID))

	sess.Rotate()
	require.NotEqual(t, oldID, sess.ID)
	require.NoError(t, sm.Commit(context.Background(), httptest.NewRecorder(), sess))
	assert.False(t, mr.Exists("session:"+oldID))
	assert.True(t, mr.Exists("session:"+sess.ID))
	assert.Equal(t, "v", sess.Get("k"))
}

func TestAuditLogOccurredAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now, AuditLog{}.occurredAt(now), "unset At must become the write time")

	explicit := now.Add(-time.Hour)
	assert.Equal(t, explicit, AuditLog{At: explicit}.occurredAt(now))
}
