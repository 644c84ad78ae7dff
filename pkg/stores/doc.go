// Package stores keeps the run history of quicksetup in SQLite: one row per
// run with its final status, and the events published while it ran.
// The schema is managed with embedded golang-migrate migrations.
package stores
