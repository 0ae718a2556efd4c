package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"retire-rag/internal/dto"
	"retire-rag/internal/index"
	"retire-rag/internal/models"
	"retire-rag/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIndex struct {
	err    error
	forced bool
	snap   *index.Snapshot
}

func (f *fakeIndex) Initialize(_ context.Context, force bool) error {
	f.forced = force
	if f.err != nil {
		return f.err
	}
	f.snap = &index.Snapshot{Chunks: make([]models.TextChunk, 4)}
	return nil
}

func (f *fakeIndex) State() index.State {
	if f.snap != nil {
		return index.StateReady
	}
	return index.StateUninitialized
}

func (f *fakeIndex) Snapshot() *index.Snapshot { return f.snap }

func TestAuthService_Login(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	jwtManager := auth.NewJWTManager("test-key", time.Hour)
	svc := NewAuthService("admin", hash, jwtManager, &fakeIndex{}, zap.NewNop())

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := jwtManager.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)

	_, err = svc.Login(context.Background(), &dto.LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), &dto.LoginRequest{Username: "root", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	disabled := NewAuthService("admin", "", jwtManager, &fakeIndex{}, zap.NewNop())
	_, err = disabled.Login(context.Background(), &dto.LoginRequest{Username: "admin", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RebuildIndex(t *testing.T) {
	idx := &fakeIndex{}
	svc := NewAuthService("admin", "", auth.NewJWTManager("k", time.Hour), idx, zap.NewNop())

	assert.Equal(t, "uninitialized", svc.IndexStatus().State)

	status, err := svc.RebuildIndex(context.Background())
	require.NoError(t, err)
	assert.True(t, idx.forced)
	assert.Equal(t, "ready", status.State)
	assert.Equal(t, 4, status.Chunks)

	idx.err = errors.New("embedding backend down")
	_, err = svc.RebuildIndex(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 4, svc.IndexStatus().Chunks, "previous index stays in place")
}
