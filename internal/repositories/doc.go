// package repositories provides the SQLite persistence layer.
//
// Three repositories back the dashboard's local state:
//   - [SessionRepository] : the single persisted OAuth session (session.Store)
//   - [PlayEventRepository] : synced play history, deduplicated by track and timestamp
//   - [PickRepository] : the memoized daily pick, keyed by calendar date (pick.Cache)
package repositories
