package account

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/chatblast/handler"
	"github.com/dmitrymomot/chatblast/svc/identity"
	"github.com/dmitrymomot/chatblast/svc/session"
)

// selfRef addresses the caller's own profile in paths.
const selfRef = "@me"

type profileRequest struct {
	ID string `path:"id"`
}

func bindProfilePatch(r *http.Request, v any) error {
	pt, err := identity.DecodeProfilePatch(r.Body)
	if err != nil {
		return err
	}
	*v.(*identity.ProfilePatch) = pt
	return nil
}

func (s *Service) lookupProfile(ctx context.Context, res *session.Result, id string) (*identity.Profile, error) {
	if id == selfRef || id == res.Profile.ID {
		return res.Profile, nil
	}
	return s.profiles.Get(ctx, id)
}

func (s *Service) getProfile(ctx handler.Context, req profileRequest) handler.Response {
	res, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	p, err := s.lookupProfile(ctx, res, req.ID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(identity.NewView(p, p.ID == res.Profile.ID))
}

func (s *Service) patchProfile(ctx handler.Context, pt identity.ProfilePatch) handler.Response {
	res, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	p, err := s.profiles.Patch(ctx, res.Profile, pt)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(identity.NewView(p, true))
}

func (s *Service) badges(ctx handler.Context, req profileRequest) handler.Response {
	res, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	p, err := s.lookupProfile(ctx, res, req.ID)
	if err != nil {
		return handler.Error(err)
	}
	badges, err := identity.Badges(ctx, s.tenants, p, res.Tenant)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(badges)
}

func (s *Service) online(ctx handler.Context, _ struct{}) handler.Response {
	res, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	views, err := s.views(ctx, res, s.presence.Online(res.TenantID()))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(views)
}

func (s *Service) typing(ctx handler.Context, _ struct{}) handler.Response {
	res, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	views, err := s.views(ctx, res, s.presence.Typing(res.TenantID()))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(views)
}

type typingRequest struct {
	IsTyping bool `json:"is_typing"`
}

// setTyping answers 201 when the typing state changed and 200 otherwise.
func (s *Service) setTyping(ctx handler.Context, req typingRequest) handler.Response {
	res, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if s.presence.SetTyping(res.Profile, res.TenantID(), req.IsTyping) {
		return handler.EmptyWithStatus(http.StatusCreated)
	}
	return handler.EmptyWithStatus(http.StatusOK)
}

func (s *Service) views(ctx context.Context, res *session.Result, ids []string) ([]identity.View, error) {
	profiles, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]identity.View, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, identity.NewView(p, p.ID == res.Profile.ID))
	}
	return out, nil
}
