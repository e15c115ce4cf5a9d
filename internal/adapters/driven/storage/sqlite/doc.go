// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - StandardStore: Standard, version, and change persistence
//   - SchedulerStore: Scheduler task state and history persistence
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Migrations are applied in order at startup and
// recorded in the schema_migrations table.
//
// # Atomicity
//
// Multi-entity writes (a standard with its first version, a version with
// its change record) run inside a single transaction. A version is never
// visible without its change record.
//
// # Data Location
//
// By default, the database is stored at ~/.vigil/data/tracker.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
