// Package api exposes the game service over HTTP.
//
// Routes (gorilla/mux):
//
//	POST   /api/sessions                   create a session {"config_id": "cube"}
//	GET    /api/sessions                   list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//	GET    /api/sessions/{id}              session info with state and config
//	DELETE /api/sessions/{id}              delete a session
//	GET    /api/sessions/{id}/state        game state of every face
//	POST   /api/sessions/{id}/move         {"direction": "up", "reset": false}
//	POST   /api/sessions/{id}/bulk-move    {"moves": ["up", "left"], "reset": false}
//	POST   /api/sessions/{id}/reset        start a new game with the same config
//	POST   /api/sessions/{id}/face         {"face": 2}
//	GET    /api/sessions/{id}/history      ?page=1&limit=20&order=desc
//	GET    /api/configs                    available configurations
//	POST   /api/configs                    save a configuration
//	GET    /api/configs/{name}             one configuration
//	GET    /api/highscores/{config}        persisted best score
//	GET    /health
//	GET    /ws?session={id}                live state updates
//
// Errors are JSON bodies {"error": "...", "code": 404}. Unknown sessions and
// configs map to 404, bad directions, faces and configs to 400.
//
// A move that leaves the board unchanged is not an error: the response has
// success=false and outcome.reason set to no_move, face_terminal or game_over.
package api
