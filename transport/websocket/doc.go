// Package websocket pushes live game updates to browsers watching a session.
//
// A single Hub goroutine owns every connection. Clients attach with
// /ws?session=<id> and receive one JSON Message per change:
//
//	{"session_id": "a1b2", "event": "state_update", "game_state": {...}}
//
// Milestones such as a new level or the end of the game follow as their own
// event carrying the game event in data:
//
//	{"session_id": "a1b2", "event": "game_over", "data": {"type": "game_over", ...}}
//
// BroadcastToSession and BroadcastEvent never block the caller: messages go
// through a buffered queue and are dropped when it is full. A client whose own
// send buffer is full is disconnected. Session ids are matched
// case-insensitively, like the session manager does.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	hub.BroadcastToSession(id, state)
package websocket
