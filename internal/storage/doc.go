// Package storage holds the set of pack sizes offered by default, either in
// memory or in a SQLite database managed with goose migrations.
package storage
