package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures what the API router serves. Each part is optional
// and only mounted when provided.
type RouterOptions struct {
	// API serves the JSON endpoints.
	API Mountable
	// Realtime serves the websocket upgrade at /api/ws.
	Realtime Mountable
}

// Router mounts the chatblast API under /api.
//
// Example:
//
//	api, err := account.NewService(cfg, deps)
//	ws := account.NewRealtimeEndpoint(cfg, hub, resolver, tracker, log)
//
//	r := chi.NewRouter()
//	r.Mount("/", account.Router(account.RouterOptions{
//	    API:      api,
//	    Realtime: ws,
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(api chi.Router) {
		if opts.Realtime != nil {
			api.Handle("/ws", opts.Realtime.Handle())
		}
		if opts.API != nil {
			api.Mount("/", opts.API.Handle())
		}
	})

	return r
}
