// Package mcp exposes the game to Model Context Protocol clients.
//
// Client registers one MCP tool per game operation and forwards every call to
// the REST API (package api), so an MCP agent and a browser can share sessions:
//
//	create_session, list_sessions, get_session, game_state, move, bulk_move,
//	reset_game, select_face, move_history, list_configs, high_score,
//	game_instructions
//
// Results are plain text meant for a language model: the active face is
// rendered row by row with tab separated values and "." for empty cells,
// followed by a one line summary per cube face.
//
// The same server is reachable over stdio (server.ServeStdio) or through the
// HTTP /mcp endpoint mounted by the main command.
package mcp
