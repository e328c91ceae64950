// Package service provides the business logic layer for the Merge Mania game.
//
// The service package implements:
//   - Multi-session game management
//   - Configuration management and loading
//   - Move processing with merge, spawn and level events
//   - High score tracking per configuration
//   - Move history tracking
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
// HighScoreStore persists the best score reached on each configuration.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. A single service lock serialises every operation that
// touches an engine, so one turn (slide, merge, spawn, terminal check) is
// never observed half done by a concurrent reader.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	scores, _ := score.Open("highscores.json")
//	gameService := service.NewGameService(sessionMgr, configMgr, scores)
//
//	sessionInfo, err := gameService.CreateSession(ctx, "cube")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, sessionInfo.ID, "left", false)
package service
