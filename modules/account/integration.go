package account

import (
	"net/http"

	"github.com/dmitrymomot/chatblast/handler"
	"github.com/dmitrymomot/chatblast/svc/identity"
	"github.com/dmitrymomot/chatblast/svc/session"
	"github.com/dmitrymomot/chatblast/svc/tenant"
)

type ownedIntegrationRequest struct {
	ID string `path:"intid"`
}

type patchIntegrationRequest struct {
	ID    string `path:"intid"`
	Patch tenant.Patch
}

func bindIntegrationPatch(r *http.Request, v any) error {
	p, err := tenant.DecodePatch(r.Body)
	if err != nil {
		return err
	}
	v.(*patchIntegrationRequest).Patch = p
	return nil
}

// owner returns the caller when they may manage integrations.
func owner(ctx handler.Context) (*session.Result, error) {
	res, err := current(ctx)
	if err != nil {
		return nil, err
	}
	if res.Profile.Kind != identity.Registered {
		return nil, identity.ErrNotRegistered
	}
	return res, nil
}

func (s *Service) integrationSummary(ctx handler.Context, req integrationRequest) handler.Response {
	summary, err := s.tenants.Summary(ctx, req.ID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(summary)
}

func (s *Service) listIntegrations(ctx handler.Context, _ struct{}) handler.Response {
	res, err := owner(ctx)
	if err != nil {
		return handler.Error(err)
	}
	tenants, err := s.tenants.ListByOwner(ctx, res.Profile.ID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(tenants)
}

func (s *Service) createIntegration(ctx handler.Context, req tenant.CreateParams) handler.Response {
	res, err := owner(ctx)
	if err != nil {
		return handler.Error(err)
	}
	t, err := s.tenants.Create(ctx, res.Profile.ID, req)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(t, handler.WithJSONStatus(http.StatusCreated))
}

func (s *Service) getIntegration(ctx handler.Context, req ownedIntegrationRequest) handler.Response {
	res, err := owner(ctx)
	if err != nil {
		return handler.Error(err)
	}
	t, err := s.tenants.Owned(ctx, res.Profile, req.ID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(t)
}

func (s *Service) patchIntegration(ctx handler.Context, req patchIntegrationRequest) handler.Response {
	res, err := owner(ctx)
	if err != nil {
		return handler.Error(err)
	}
	t, err := s.tenants.Patch(ctx, res.Profile, req.ID, req.Patch)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(t)
}

func (s *Service) verifyDomain(ctx handler.Context, req integrationRequest) handler.Response {
	res, err := owner(ctx)
	if err != nil {
		return handler.Error(err)
	}
	t, err := s.tenants.VerifyDomain(ctx, res.Profile, req.ID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(t)
}
