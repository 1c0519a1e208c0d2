// Package store is the shared key-value store that the app, its widget, the
// sync daemon and the companion read and write.
//
// Values are opaque bytes addressed by an app group (namespace) and a key.
// Three backends implement Store:
//
//   - SQLiteStore keeps everything in one WAL-mode SQLite file so several
//     processes can read while one writes.
//   - DirStore keeps one JSON file per key and replaces files atomically.
//   - MemStore lives in process memory and is used by tests.
//
// When no backend can be opened, OpenOrUnavailable returns Unavailable: reads
// find nothing and writes are dropped with a logged warning. Callers never
// have to special-case a missing store.
//
// Shared layers the typed keys on top of a Store:
//
//	s := store.NewShared(backend, store.DefaultGroup, logger)
//	list := s.LoadDishes(ctx)          // empty on absence or bad data
//	_ = s.SaveDishes(ctx, list)
//
// Watcher turns file system events on SQLiteStore and DirStore into Change
// values so a process can react to writes made by another one.
package store
