package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/DownstreamWealth/portal/internal/config"
	"github.com/DownstreamWealth/portal/internal/domain"
	"github.com/DownstreamWealth/portal/internal/password"
	"github.com/DownstreamWealth/portal/internal/repository"
	"github.com/DownstreamWealth/portal/internal/service"
)

// Registrar is satisfied by *service.AccountService.
type Registrar interface {
	Register(ctx context.Context, in service.RegisterInput) error
}

// EnsureSeedUser registers the configured seed account on startup if missing.
func EnsureSeedUser(lc fx.Lifecycle, cfg config.Config, accounts *service.AccountService, credentials repository.CredentialRepository, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return SeedUser(ctx, cfg, accounts, credentials, logger)
		},
	})
}

// SeedUser goes through the normal registration path so the seed account
// starts as an explorer like any other. An existing seed account keeps its
// row; a legacy bcrypt hash matching the configured password is upgraded.
func SeedUser(ctx context.Context, cfg config.Config, accounts Registrar, credentials repository.CredentialRepository, logger *zap.Logger) error {
	email := strings.TrimSpace(cfg.SeedUserEmail)
	if email == "" {
		return nil
	}
	if logger == nil {
		logger = zap.L()
	}

	err := accounts.Register(ctx, service.RegisterInput{
		Name:     cfg.SeedUserName,
		Email:    email,
		Password: cfg.SeedUserPassword,
	})
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return checkSeedCredentials(ctx, cfg, email, credentials, logger)
	case err != nil:
		return fmt.Errorf("seed user: %w", err)
	}

	logger.Info("seed user created", zap.String("email", email))
	return nil
}

func checkSeedCredentials(ctx context.Context, cfg config.Config, email string, credentials repository.CredentialRepository, logger *zap.Logger) error {
	user, found := credentials.FindByEmail(ctx, email)
	if !found {
		logger.Warn("seed user vanished after conflict", zap.String("email", email))
		return nil
	}

	ok, err := password.Verify(cfg.SeedUserPassword, user.PasswordHash)
	if err != nil {
		logger.Warn("seed user has unreadable password hash", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil
	}
	if !ok {
		logger.Warn("seed user password differs from SEED_USER_PASSWORD", zap.Int64("user_id", user.ID))
		return nil
	}
	if !password.NeedsRehash(user.PasswordHash) {
		logger.Debug("seed user already present", zap.String("email", email))
		return nil
	}

	if err := credentials.UpdatePassword(ctx, user.ID, cfg.SeedUserPassword); err != nil {
		return fmt.Errorf("seed user rehash: %w", err)
	}
	logger.Info("seed user password rehashed", zap.Int64("user_id", user.ID))
	return nil
}
