// Package realtime is a small websocket hub with named rooms.
//
// Every connection owns a buffered send queue drained by a single writer
// goroutine, so emitting never blocks on a slow client. A client whose queue
// is full is disconnected instead of stalling the room.
//
// Typical usage:
//
//	hub := realtime.NewHub(realtime.WithLogger(log))
//	r.Get("/ws", realtime.Handler(hub,
//		realtime.OnConnect(tracker.Accept),
//		realtime.OnDisconnect(tracker.Disconnect),
//	).ServeHTTP)
//
//	hub.Emit(realtime.TenantRoom(id), "profile.join", payload)
//	hub.DisconnectRoom(realtime.ProfileRoom(profileID))
package realtime
