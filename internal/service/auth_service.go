package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"retire-rag/internal/dto"
	"retire-rag/internal/index"
	"retire-rag/pkg/auth"

	"go.uber.org/zap"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// IndexRebuilder is the part of the index manager the admin surface drives.
type IndexRebuilder interface {
	Initialize(ctx context.Context, force bool) error
	State() index.State
	Snapshot() *index.Snapshot
}

// AuthService authenticates the single configured administrator and runs
// the admin-only index operations.
type AuthService struct {
	username     string
	passwordHash string
	jwtManager   *auth.JWTManager
	index        IndexRebuilder
	logger       *zap.Logger
}

func NewAuthService(username, passwordHash string, jwtManager *auth.JWTManager, idx IndexRebuilder, logger *zap.Logger) *AuthService {
	if passwordHash == "" {
		logger.Warn("Admin password hash is not configured, admin login is disabled")
	}
	return &AuthService{
		username:     username,
		passwordHash: passwordHash,
		jwtManager:   jwtManager,
		index:        idx,
		logger:       logger,
	}
}

func (s *AuthService) Login(_ context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if s.passwordHash == "" || subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) != 1 {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPasswordHash(req.Password, s.passwordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateToken(s.username, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Admin logged in", zap.String("username", s.username))
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtManager.GetTokenDuration().Seconds()),
	}, nil
}

// RebuildIndex forces a full index rebuild. The previous index keeps serving
// queries if the rebuild fails.
func (s *AuthService) RebuildIndex(ctx context.Context) (*dto.IndexStatusResponse, error) {
	if err := s.index.Initialize(ctx, true); err != nil {
		return nil, fmt.Errorf("failed to rebuild index: %w", err)
	}
	return s.IndexStatus(), nil
}

func (s *AuthService) IndexStatus() *dto.IndexStatusResponse {
	chunks := 0
	if snap := s.index.Snapshot(); snap != nil {
		chunks = snap.Len()
	}
	return &dto.IndexStatusResponse{
		State:  s.index.State().String(),
		Chunks: chunks,
		Status: "success",
	}
}
