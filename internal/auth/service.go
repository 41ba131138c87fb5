// Package auth guards the game master endpoints. There is a single game
// master account whose Argon2id hash lives in the config file.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomblanch118/DAB/internal/config"
	"go.uber.org/zap"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	logger         *zap.Logger
	jwtHandler     *JWTHandler
	passwordHasher *PasswordHasher
	passwordHash   string
}

func NewAuthService(cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	if !cfg.IsProductionReady() {
		logger.Warn("Auth is running with development defaults",
			zap.Bool("password_hash_set", cfg.GameMasterPasswordHash != ""))
	}

	return &AuthService{
		logger:         logger,
		jwtHandler:     NewJWTHandler(cfg.GetJWTSecret(), cfg.AccessTokenTTL),
		passwordHasher: NewPasswordHasher(),
		passwordHash:   cfg.GameMasterPasswordHash,
	}
}

// Enabled reports whether a game master password is configured. Without
// one the command endpoints are open.
func (a *AuthService) Enabled() bool {
	return a.passwordHash != ""
}

// Login checks the game master password and returns an access token.
func (a *AuthService) Login(password, ipAddress string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, fmt.Errorf("login disabled: no game master password configured")
	}

	ok, err := a.passwordHasher.VerifyPassword(password, a.passwordHash)
	if err != nil {
		a.logger.Error("Stored password hash is unusable", zap.Error(err))
		return "", time.Time{}, ErrInvalidCredentials
	}
	if !ok {
		a.logger.Warn("Game master login failed", zap.String("ip", ipAddress))
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expires, err := a.jwtHandler.GenerateAccessToken(RoleGameMaster)
	if err != nil {
		return "", time.Time{}, err
	}

	a.logger.Info("Game master logged in", zap.String("ip", ipAddress))
	return token, expires, nil
}

func (a *AuthService) ValidateToken(token string) (*Claims, error) {
	return a.jwtHandler.ValidateAccessToken(token)
}
