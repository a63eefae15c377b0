package account

import (
	"net/http"

	"github.com/dmitrymomot/chatblast/handler"
	"github.com/dmitrymomot/chatblast/pkg/logger"
	"github.com/dmitrymomot/chatblast/svc/delegated"
	"github.com/dmitrymomot/chatblast/svc/identity"
	"github.com/dmitrymomot/chatblast/svc/tenant"
)

type integrationRequest struct {
	ID string `path:"id"`
}

// oauth signs a visitor into a tenant: a fresh Anonymous profile, or the
// Delegated profile the tenant's verification endpoint vouches for.
func (s *Service) oauth(ctx handler.Context, req integrationRequest) handler.Response {
	if s.resolver.IsAuthenticated(ctx, ctx.Request()) {
		return handler.Error(ErrAlreadyAuthenticated)
	}

	t, err := s.tenants.Get(ctx, req.ID)
	if err != nil {
		return handler.Error(err)
	}

	var p *identity.Profile
	switch t.Strategy {
	case tenant.DelegatedAuth:
		p, err = s.delegatedProfile(ctx, t)
	default:
		p, err = s.profiles.CreateAnonymous(ctx, t.ID)
	}
	if err != nil {
		return handler.Error(err)
	}

	return s.issue(ctx, p, http.StatusOK)
}

func (s *Service) delegatedProfile(ctx handler.Context, t *tenant.Tenant) (*identity.Profile, error) {
	token, err := delegated.TokenFromRequest(ctx.Request())
	if err != nil {
		return nil, err
	}

	var cfg tenant.Verification
	if t.Verification != nil {
		cfg = *t.Verification
	}
	ext, err := s.verifier.Verify(ctx, cfg, token)
	if err != nil {
		return nil, err
	}
	return s.profiles.UpsertDelegated(ctx, t.ID, ext)
}

type signupRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstname,omitempty"`
	LastName  string `json:"lastname,omitempty"`
}

func (s *Service) signup(ctx handler.Context, req signupRequest) handler.Response {
	if s.resolver.IsAuthenticated(ctx, ctx.Request()) {
		return handler.Error(ErrAlreadyAuthenticated)
	}

	p, err := s.profiles.CreateProfile(ctx, identity.CreateParams{
		Kind:     identity.Registered,
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Name:     identity.Name{First: req.FirstName, Last: req.LastName},
	})
	if err != nil {
		return handler.Error(err)
	}

	return s.issue(ctx, p, http.StatusCreated)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Service) login(ctx handler.Context, req loginRequest) handler.Response {
	if s.resolver.IsAuthenticated(ctx, ctx.Request()) {
		return handler.Error(ErrAlreadyAuthenticated)
	}

	p, err := s.profiles.CheckPassword(ctx, req.Username, req.Password)
	if err != nil {
		return handler.Error(err)
	}
	if p == nil {
		return handler.Error(ErrInvalidCredentials)
	}

	return s.issue(ctx, p, http.StatusOK)
}

func (s *Service) logout(ctx handler.Context, _ struct{}) handler.Response {
	res, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if err := s.sessions.Logout(ctx, ctx.ResponseWriter(), res); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}

// issue activates the profile's session, sets its cookie and answers with
// the profile as seen by its owner.
func (s *Service) issue(ctx handler.Context, p *identity.Profile, status int) handler.Response {
	if _, err := s.sessions.Issue(ctx, ctx.ResponseWriter(), ctx.Request(), p); err != nil {
		return handler.Error(err)
	}

	s.log.InfoContext(ctx, "profile signed in",
		logger.ProfileID(p.ID),
		logger.TenantID(p.TenantID),
	)
	return handler.JSON(identity.NewView(p, true), handler.WithJSONStatus(status))
}
