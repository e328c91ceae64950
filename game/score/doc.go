// Package score persists the best score reached on each game configuration.
//
// Two stores implement service.HighScoreStore:
//   - FileStore keeps every record in one JSON document
//   - SQLiteStore keeps them in a high_scores table
//
// Open picks one from a DSN: a "sqlite:" prefix or a ".db" or ".sqlite" suffix selects SQLite,
// anything else is treated as a JSON file path.
//
// Both stores only ever raise a record; Put with a lower score is a no-op.
package score
