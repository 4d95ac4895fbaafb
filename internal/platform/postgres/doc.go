// Package postgres provides the PostgreSQL implementation of the story job
// store defined in internal/store, together with the embedded schema
// migrations applied at server start.
//
// Connections are opened through the pgx database/sql driver, so every
// store accepts a plain *sql.DB.
package postgres
