package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DownstreamWealth/portal/internal/domain"
	"github.com/DownstreamWealth/portal/internal/repository"
	"github.com/DownstreamWealth/portal/internal/service"
	"github.com/DownstreamWealth/portal/internal/session"
)

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUserRepo()
	svc := service.NewAccountService(users, newMemoryProfileRepo(), zap.NewNop())

	in := service.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret"}
	require.NoError(t, svc.Register(ctx, in))

	err := svc.Register(ctx, service.RegisterInput{Name: "Other", Email: "ada@example.com", Password: "different"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
	require.Len(t, users.byID, 1)
	require.Equal(t, 1, users.creates)
}

func TestRegisterEmailMatchIsExact(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUserRepo()
	svc := service.NewAccountService(users, newMemoryProfileRepo(), zap.NewNop())

	require.NoError(t, svc.Register(ctx, service.RegisterInput{Email: "ada@example.com", Password: "secret"}))
	require.NoError(t, svc.Register(ctx, service.RegisterInput{Email: "Ada@example.com", Password: "secret"}))
	require.Len(t, users.byID, 2)
}

func TestRegisterPropagatesCreateFailure(t *testing.T) {
	users := newMemoryUserRepo()
	users.createErr = errors.New("connection reset")
	svc := service.NewAccountService(users, newMemoryProfileRepo(), zap.NewNop())

	err := svc.Register(context.Background(), service.RegisterInput{Email: "ada@example.com", Password: "secret"})
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrEmailTaken)
	require.Empty(t, users.byID)
}

func TestRegisterStartsAsExplorerWithoutProfile(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUserRepo()
	profiles := newMemoryProfileRepo()
	svc := service.NewAccountService(users, profiles, zap.NewNop())

	require.NoError(t, svc.Register(ctx, service.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret"}))

	user, found := users.FindByEmail(ctx, "ada@example.com")
	require.True(t, found)
	require.Equal(t, domain.StatusExplorer, user.Status)
	require.Empty(t, profiles.rows)
}

func TestGetProfileWithoutProfileRow(t *testing.T) {
	users := newMemoryUserRepo()
	users.put(domain.User{ID: 7, Email: "ada@example.com", Name: ptr("Ada"), Status: domain.StatusExplorer})
	svc := service.NewAccountService(users, newMemoryProfileRepo(), zap.NewNop())

	view, err := svc.GetProfile(context.Background(), 7)
	require.NoError(t, err)
	require.Nil(t, view.Profile)

	fields := view.Fields()
	require.Len(t, fields, 4)
	require.Equal(t, int64(7), fields["id"])
	require.Equal(t, "ada@example.com", fields["email"])
	require.Equal(t, domain.StatusExplorer, fields["status"])
}

func TestGetProfileMergesProfileFields(t *testing.T) {
	users := newMemoryUserRepo()
	users.put(domain.User{ID: 7, Email: "ada@example.com", Status: domain.StatusProspect})
	profiles := newMemoryProfileRepo()
	profiles.rows[7] = domain.Profile{ID: 99, UserID: 7, Phone: ptr("555-0100"), BusinessName: ptr("Acme")}
	svc := service.NewAccountService(users, profiles, zap.NewNop())

	view, err := svc.GetProfile(context.Background(), 7)
	require.NoError(t, err)

	fields := view.Fields()
	require.Equal(t, int64(7), fields["id"])
	require.Equal(t, int64(99), fields["profileId"])
	require.Equal(t, int64(7), fields["userId"])
	require.Equal(t, ptr("555-0100"), fields["phone"])
	require.Equal(t, ptr("Acme"), fields["businessName"])
	require.Nil(t, fields["address"])
}

func TestGetProfileUserMissing(t *testing.T) {
	svc := service.NewAccountService(newMemoryUserRepo(), newMemoryProfileRepo(), zap.NewNop())

	_, err := svc.GetProfile(context.Background(), 42)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateProfilePromotesCompleteExplorer(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUserRepo()
	users.put(domain.User{ID: 7, Status: domain.StatusExplorer})
	profiles := newMemoryProfileRepo()
	svc := service.NewAccountService(users, profiles, zap.NewNop())

	caller := session.Identity{UserID: 7, Status: domain.StatusExplorer}
	require.NoError(t, svc.UpdateProfile(ctx, caller, domain.ProfileKindPersonal, completePersonal()))

	require.Equal(t, domain.StatusProspect, users.byID[7].Status)
	require.Equal(t, []string{domain.StatusProspect}, users.statusCalls)
}

func TestUpdateProfileIncompleteExplorerStays(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUserRepo()
	users.put(domain.User{ID: 7, Status: domain.StatusExplorer})
	profiles := newMemoryProfileRepo()
	svc := service.NewAccountService(users, profiles, zap.NewNop())

	fields := completePersonal()
	fields.ZipCode = ptr("")
	caller := session.Identity{UserID: 7, Status: domain.StatusExplorer}
	require.NoError(t, svc.UpdateProfile(ctx, caller, domain.ProfileKindPersonal, fields))

	require.Equal(t, domain.StatusExplorer, users.byID[7].Status)
	require.Empty(t, users.statusCalls)
	require.Equal(t, 1, profiles.reads)
}

func TestUpdateProfileProspectSkipsPromotionCheck(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUserRepo()
	users.put(domain.User{ID: 7, Status: domain.StatusProspect})
	profiles := newMemoryProfileRepo()
	svc := service.NewAccountService(users, profiles, zap.NewNop())

	caller := session.Identity{UserID: 7, Status: domain.StatusProspect}
	require.NoError(t, svc.UpdateProfile(ctx, caller, domain.ProfileKindPersonal, completePersonal()))

	require.Zero(t, profiles.reads)
	require.Empty(t, users.statusCalls)
}

func TestUpdateProfileUsesSessionStatus(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUserRepo()
	// Promoted in the database but the session still says explorer.
	users.put(domain.User{ID: 7, Status: domain.StatusProspect})
	profiles := newMemoryProfileRepo()
	svc := service.NewAccountService(users, profiles, zap.NewNop())

	caller := session.Identity{UserID: 7, Status: domain.StatusExplorer}
	require.NoError(t, svc.UpdateProfile(ctx, caller, domain.ProfileKindPersonal, completePersonal()))

	require.Equal(t, []string{domain.StatusProspect}, users.statusCalls)
}

func TestUpdateProfileBusinessWriteCanPromote(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUserRepo()
	users.put(domain.User{ID: 7, Status: domain.StatusExplorer})
	profiles := newMemoryProfileRepo()
	svc := service.NewAccountService(users, profiles, zap.NewNop())
	caller := session.Identity{UserID: 7, Status: domain.StatusExplorer}

	// Personal details are already complete; the session status has not been refreshed.
	users.statusErr = errors.New("database unavailable")
	require.Error(t, svc.UpdateProfile(ctx, caller, domain.ProfileKindPersonal, completePersonal()))
	users.statusErr = nil

	business := domain.ProfileFields{BusinessName: ptr("Acme"), BusinessType: ptr("LLC")}
	require.NoError(t, svc.UpdateProfile(ctx, caller, domain.ProfileKindBusiness, business))

	require.Equal(t, domain.StatusProspect, users.byID[7].Status)
	row := profiles.rows[7]
	require.Equal(t, ptr("Acme"), row.BusinessName)
	require.Equal(t, ptr("555-0100"), row.Phone)
}

func TestUpdateProfileWriteFailureSkipsPromotion(t *testing.T) {
	users := newMemoryUserRepo()
	users.put(domain.User{ID: 7, Status: domain.StatusExplorer})
	profiles := newMemoryProfileRepo()
	profiles.upsertErr = errors.New("unique violation")
	svc := service.NewAccountService(users, profiles, zap.NewNop())

	caller := session.Identity{UserID: 7, Status: domain.StatusExplorer}
	err := svc.UpdateProfile(context.Background(), caller, domain.ProfileKindPersonal, completePersonal())
	require.Error(t, err)
	require.Zero(t, profiles.reads)
	require.Empty(t, users.statusCalls)
}

func completePersonal() domain.ProfileFields {
	return domain.ProfileFields{
		Phone:   ptr("555-0100"),
		Address: ptr("1 Main St"),
		City:    ptr("Springfield"),
		State:   ptr("IL"),
		ZipCode: ptr("62701"),
	}
}

func ptr(s string) *string { return &s }

type memoryUserRepo struct {
	byID        map[int64]domain.User
	nextID      int64
	creates     int
	createErr   error
	statusErr   error
	statusCalls []string
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byID: map[int64]domain.User{}, nextID: 1}
}

func (m *memoryUserRepo) put(u domain.User) {
	m.byID[u.ID] = u
}

func (m *memoryUserRepo) FindByEmail(_ context.Context, email string) (domain.User, bool) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, true
		}
	}
	return domain.User{}, false
}

func (m *memoryUserRepo) FindByID(_ context.Context, userID int64) (domain.User, bool) {
	u, ok := m.byID[userID]
	return u, ok
}

func (m *memoryUserRepo) Create(_ context.Context, in repository.NewUser) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.creates++
	id := m.nextID
	m.nextID++
	name := in.Name
	m.byID[id] = domain.User{ID: id, Name: &name, Email: in.Email, PasswordHash: "hashed", Status: domain.StatusExplorer}
	return nil
}

func (m *memoryUserRepo) SetStatus(_ context.Context, userID int64, status string) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	m.statusCalls = append(m.statusCalls, status)
	u := m.byID[userID]
	u.Status = status
	m.byID[userID] = u
	return nil
}

type memoryProfileRepo struct {
	rows      map[int64]domain.Profile
	reads     int
	upsertErr error
}

func newMemoryProfileRepo() *memoryProfileRepo {
	return &memoryProfileRepo{rows: map[int64]domain.Profile{}}
}

func (m *memoryProfileRepo) FindByUserID(_ context.Context, userID int64) (domain.Profile, bool) {
	m.reads++
	p, ok := m.rows[userID]
	return p, ok
}

// Upsert mirrors the null-on-omit semantics of the Postgres implementation.
func (m *memoryProfileRepo) Upsert(_ context.Context, userID int64, f domain.ProfileFields, kind domain.ProfileKind) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	p, ok := m.rows[userID]
	if !ok {
		p = domain.Profile{ID: userID * 10, UserID: userID}
	}
	switch kind {
	case domain.ProfileKindPersonal:
		p.Phone, p.Address, p.City, p.State, p.ZipCode = orNil(f.Phone), orNil(f.Address), orNil(f.City), orNil(f.State), orNil(f.ZipCode)
	case domain.ProfileKindBusiness:
		p.BusinessName, p.BusinessType = orNil(f.BusinessName), orNil(f.BusinessType)
	}
	m.rows[userID] = p
	return nil
}

func orNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
