// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// MemoryJobStore is the default implementation used when no database is
// configured; the PostgreSQL implementation lives in internal/platform/postgres.
package store
