// Package client bootstraps the local storage used by the webkech CLI.
//
// # Overview
//
// InitStore turns a config.Config into a ready kv.Repository:
//   - sqlite: opens the file with modernc.org/sqlite and applies the embedded
//     goose migrations;
//   - postgres: opens the DSN through the pgx stdlib driver and applies the
//     Postgres migrations;
//   - redis: connects with go-redis and pings the server;
//   - memory: a process-local map, nothing is persisted.
//
// RunMigrations can also be called directly against an open *sql.DB.
//
// # Error Handling
//
// An unknown backend yields common.ErrorUnsupportedBackend. Open, ping and
// migration failures are wrapped with the backend name and ErrStorageUnavailable.
package client
