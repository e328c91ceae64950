// Package session provides session management for the Merge Mania game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns its own engine, so sessions never share boards.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs drawn from crypto/rand for easy reference.
// Lookups are case-insensitive. Callers may also pick their own ID.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	go manager.RunCleanup(ctx, time.Hour, 24*time.Hour)
//
// Sessions are kept in memory only; a restart starts with no sessions.
package session
