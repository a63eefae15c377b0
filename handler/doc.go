// Package handler provides typed HTTP handlers on top of net/http.
//
// A HandlerFunc receives a Context and a request struct populated by binders
// and returns a Response. Wrap converts it into an http.HandlerFunc:
//
//	type loginRequest struct {
//		Username string `json:"username"`
//		Password string `json:"password"`
//	}
//
//	login := func(ctx handler.Context, req loginRequest) handler.Response {
//		p, err := profiles.CheckPassword(ctx, req.Username, req.Password)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(p)
//	}
//
//	r.Post("/login", handler.Wrap(login,
//		handler.WithBinders[handler.Context, loginRequest](binder.BindJSON()),
//		handler.WithErrorHandler[handler.Context, loginRequest](errHandler),
//	))
//
// Errors are classified by their core kind. NewErrorHandler logs them, writes
// the JSON error envelope and, for stale sessions, clears the cookie the
// error names.
package handler
