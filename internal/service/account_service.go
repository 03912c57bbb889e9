package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/DownstreamWealth/portal/internal/domain"
	"github.com/DownstreamWealth/portal/internal/repository"
	"github.com/DownstreamWealth/portal/internal/session"
)

// AccountService implements registration and profile flows.
type AccountService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewAccountService wires dependencies.
func NewAccountService(users repository.UserRepository, profiles repository.ProfileRepository, logger *zap.Logger) *AccountService {
	return &AccountService{
		users:    users,
		profiles: profiles,
		logger:   logger,
		tracer:   otel.Tracer("github.com/DownstreamWealth/portal/internal/service"),
	}
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates an account unless the email is already taken.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) error {
	ctx, span := s.startSpan(ctx, "AccountService.Register")
	defer span.End()

	if _, exists := s.users.FindByEmail(ctx, in.Email); exists {
		return domain.ErrEmailTaken
	}

	if err := s.users.Create(ctx, repository.NewUser{Name: in.Name, Email: in.Email, Password: in.Password}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("register: %w", err)
	}

	s.audit("account.registered", "email", in.Email)
	return nil
}

// GetProfile returns the user's public fields merged with their profile, if any.
func (s *AccountService) GetProfile(ctx context.Context, userID int64) (ProfileView, error) {
	ctx, span := s.startSpan(ctx, "AccountService.GetProfile")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))

	user, found := s.users.FindByID(ctx, userID)
	if !found {
		return ProfileView{}, domain.ErrUserNotFound
	}

	view := ProfileView{User: user}
	if profile, found := s.profiles.FindByUserID(ctx, userID); found {
		view.Profile = &profile
	}
	return view, nil
}

// UpdateProfile writes one group of profile fields and promotes explorers whose
// contact details are complete. The promotion gate reads the session's cached
// status, not the users table, so a status change made after the session was
// issued is not seen here.
func (s *AccountService) UpdateProfile(ctx context.Context, caller session.Identity, kind domain.ProfileKind, fields domain.ProfileFields) error {
	ctx, span := s.startSpan(ctx, "AccountService.UpdateProfile")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", caller.UserID), attribute.String("kind", string(kind)))

	if err := s.profiles.Upsert(ctx, caller.UserID, fields, kind); err != nil {
		span.RecordError(err)
		return fmt.Errorf("update profile: %w", err)
	}
	s.audit("profile.updated", "user_id", caller.UserID, "kind", string(kind))

	if caller.Status != domain.StatusExplorer {
		return nil
	}

	profile, found := s.profiles.FindByUserID(ctx, caller.UserID)
	if !found || !profile.HasContactDetails() {
		return nil
	}

	if err := s.users.SetStatus(ctx, caller.UserID, domain.StatusProspect); err != nil {
		span.RecordError(err)
		return fmt.Errorf("promote account: %w", err)
	}
	s.audit("account.promoted", "user_id", caller.UserID, "from", domain.StatusExplorer, "to", domain.StatusProspect)
	return nil
}

func (s *AccountService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AccountService) audit(event string, attrs ...any) {
	logger := s.log()
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *AccountService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
