// Package session provides session management for the 2048 game server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager handles all session operations. Each service.Session owns its own
// engine instance, so rounds in different sessions never share a board.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs from crypto/rand when the caller does not
// pick one. Caller IDs are matched case-insensitively and may contain
// letters, digits, '-' and '_'.
//
// Usage:
//
//	manager := session.NewManager(session.WithLogger(logger))
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Sessions live in memory only; CleanupExpiredSessions drops the ones that
// have not been touched within a given age.
package session
