package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/chatblast/pkg/logger"
	"github.com/dmitrymomot/chatblast/pkg/sanitizer"
)

const (
	// DefaultBcryptCost is the work factor for password hashes.
	DefaultBcryptCost   = 10
	maxUsernameAttempts = 10
	anonymousPrefix     = "ano"
)

// Service is the identity store.
type Service struct {
	store      Store
	log        *slog.Logger
	bcryptCost int
	digit      func() int
	now        func() time.Time
	// dummyHash keeps CheckPassword's timing independent of whether the
	// login exists.
	dummyHash []byte
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBcryptCost overrides DefaultBcryptCost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// WithDigitSource replaces the random digit generator used for usernames.
// fn must return values in [0, 9].
func WithDigitSource(fn func() int) Option {
	return func(s *Service) {
		if fn != nil {
			s.digit = fn
		}
	}
}

// WithClock sets the time source for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService returns an identity Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		log:        logger.Discard(),
		bcryptCost: DefaultBcryptCost,
		digit:      func() int { return rand.IntN(10) },
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("chatblast-dummy"), s.bcryptCost)
	return s
}

// CreateParams describes a profile to create. Which fields are required
// depends on Kind.
type CreateParams struct {
	Kind       Kind
	Username   string
	TenantID   string
	Password   string
	ExternalID string
	Email      string
	Name       Name
}

// CreateProfile validates, checks uniqueness and persists a new profile.
// Uniqueness violations return ErrUsernameTaken, ErrExternalIDTaken or
// ErrEmailTaken; malformed input returns ErrInvalidProfile.
func (s *Service) CreateProfile(ctx context.Context, params CreateParams) (*Profile, error) {
	p := &Profile{
		ID:         uuid.NewString(),
		Kind:       params.Kind,
		Username:   params.Username,
		ExternalID: params.ExternalID,
		Name:       params.Name,
		TenantID:   params.TenantID,
		Tenants:    []string{},
		CreatedAt:  s.now().UTC(),
	}
	if params.Email != "" {
		p.Email = &Email{Address: params.Email}
	}
	if p.TenantID != "" {
		p.Tenants = append(p.Tenants, p.TenantID)
	}

	Normalize(nil, p)
	if err := Validate(p); err != nil {
		return nil, err
	}

	if p.Kind == Registered {
		if err := ValidatePassword(params.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		p.PasswordHash = string(hash)
	} else if params.Password != "" {
		return nil, errors.Join(ErrInvalidProfile, errors.New("only registered profiles have a password"))
	}

	if err := s.ensureUnique(ctx, p); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "profile created",
		logger.Component("identity"),
		logger.ProfileID(p.ID),
		logger.TenantID(p.TenantID),
		slog.String("kind", p.Kind.String()),
	)
	return p, nil
}

func (s *Service) ensureUnique(ctx context.Context, p *Profile) error {
	taken, err := s.store.UsernameTaken(ctx, p.Kind, p.Username, p.TenantID, p.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}

	if p.ExternalID != "" {
		existing, err := s.store.FindByExternalID(ctx, p.ExternalID)
		if err != nil && !errors.Is(err, ErrProfileNotFound) {
			return err
		}
		if existing != nil && existing.ID != p.ID {
			return ErrExternalIDTaken
		}
	}

	if p.Email != nil {
		taken, err := s.store.EmailTaken(ctx, p.Email.Address, p.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
	}
	return nil
}

// GenerateUnusedUsername returns base when it is free for (kind, tenantID).
// Otherwise it appends one random digit per attempt and gives up with
// ErrUsernameRetryExhausted after 10 lookups.
func (s *Service) GenerateUnusedUsername(ctx context.Context, kind Kind, base, tenantID string) (string, error) {
	return s.generateUsername(ctx, kind, base, tenantID, "")
}

func (s *Service) generateUsername(ctx context.Context, kind Kind, base, tenantID, exceptID string) (string, error) {
	username := sanitizer.TrimToLower(base)
	for range maxUsernameAttempts {
		taken, err := s.usernameUnavailable(ctx, kind, username, tenantID, exceptID)
		if err != nil {
			return "", err
		}
		if !taken {
			return username, nil
		}
		username += strconv.Itoa(s.digit())
	}
	return "", ErrUsernameRetryExhausted
}

func (s *Service) usernameUnavailable(ctx context.Context, kind Kind, username, tenantID, exceptID string) (bool, error) {
	for _, reserved := range ReservedUsernames {
		if username == reserved {
			return true, nil
		}
	}
	return s.store.UsernameTaken(ctx, kind, username, tenantID, exceptID)
}

// CheckPassword returns the Registered profile matching login (username or
// email) and password. Any mismatch, including a profile without a
// password, yields nil without error.
func (s *Service) CheckPassword(ctx context.Context, login, password string) (*Profile, error) {
	login = sanitizer.TrimToLower(login)
	if login == "" || password == "" {
		return nil, nil
	}

	p, err := s.store.FindRegistered(ctx, login)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	if p == nil || p.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return p, nil
}

// CreateAnonymous creates a guest profile for tenantID named "ano" followed
// by three random digits.
func (s *Service) CreateAnonymous(ctx context.Context, tenantID string) (*Profile, error) {
	base := fmt.Sprintf("%s%d%d%d", anonymousPrefix, s.digit(), s.digit(), s.digit())
	username, err := s.GenerateUnusedUsername(ctx, Anonymous, base, tenantID)
	if err != nil {
		return nil, err
	}
	return s.CreateProfile(ctx, CreateParams{Kind: Anonymous, Username: username, TenantID: tenantID})
}

// ExternalIdentity is what a tenant's verification endpoint reports.
type ExternalIdentity struct {
	ID       string
	Username string
	Avatar   string
}

// UpsertDelegated returns the Delegated profile for ext.ID, creating it on
// first sight. A changed upstream username renames the profile.
func (s *Service) UpsertDelegated(ctx context.Context, tenantID string, ext ExternalIdentity) (*Profile, error) {
	base := SanitizeUsername(ext.Username)

	p, err := s.store.FindByExternalID(ctx, ext.ID)
	if errors.Is(err, ErrProfileNotFound) {
		username, err := s.GenerateUnusedUsername(ctx, Delegated, base, tenantID)
		if err != nil {
			return nil, err
		}
		return s.CreateProfile(ctx, CreateParams{
			Kind:       Delegated,
			Username:   username,
			TenantID:   tenantID,
			ExternalID: ext.ID,
		})
	}
	if err != nil {
		return nil, err
	}

	if p.TenantID != tenantID {
		return nil, ErrExternalIDTaken
	}
	if p.Username == base {
		return p, nil
	}

	username, err := s.generateUsername(ctx, Delegated, base, tenantID, p.ID)
	if err != nil {
		return nil, err
	}
	if username == p.Username {
		return p, nil
	}

	next := p.Clone()
	next.Username = username
	Normalize(p, next)
	if err := Validate(next); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Grant adds perms to the Registered profile with the given username or
// email. Permissions already held are kept once.
func (s *Service) Grant(ctx context.Context, login string, perms ...string) (*Profile, error) {
	if len(perms) == 0 {
		return nil, ErrInvalidPermission
	}
	p, err := s.store.FindRegistered(ctx, sanitizer.TrimToLower(login))
	if err != nil {
		return nil, err
	}

	next := p.Clone()
	for _, perm := range perms {
		perm = strings.TrimSpace(perm)
		if perm == "" {
			return nil, ErrInvalidPermission
		}
		if !slices.Contains(next.Permissions, perm) {
			next.Permissions = append(next.Permissions, perm)
		}
	}
	if err := s.store.Update(ctx, next); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "permissions granted",
		logger.ProfileID(next.ID),
		slog.Any("permissions", next.Permissions),
	)
	return next, nil
}

// AddVisitedTenant records that the profile interacted with tenantID.
func (s *Service) AddVisitedTenant(ctx context.Context, profileID, tenantID string) error {
	return s.store.AddTenant(ctx, profileID, tenantID)
}

// Get returns the profile with id or ErrProfileNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	return s.store.Get(ctx, id)
}

// GetMany returns the existing profiles among ids. Unknown ids are skipped.
func (s *Service) GetMany(ctx context.Context, ids []string) ([]*Profile, error) {
	if len(ids) == 0 {
		return []*Profile{}, nil
	}
	return s.store.GetMany(ctx, ids)
}

// Patch applies pt to a Registered profile. The email verified flag resets
// when the address changes.
func (s *Service) Patch(ctx context.Context, p *Profile, pt ProfilePatch) (*Profile, error) {
	if p.Kind != Registered {
		return nil, ErrNotRegistered
	}
	if err := pt.Validate(); err != nil {
		return nil, err
	}

	next := pt.Apply(p)
	Normalize(p, next)
	if err := Validate(next); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, next); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}
