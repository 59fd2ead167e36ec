// Package eventstore records what each compile and upload run did, as an
// append-only log in SQLite, and projects it into run summaries for the
// history command.
package eventstore

import "context"

// Store persists run records.
type Store interface {
	// Append stores rec. A zero At is stamped with the store clock.
	Append(ctx context.Context, rec Record) error

	// Run returns the records of one run in append order.
	Run(ctx context.Context, runID string) ([]Record, error)

	// Recent returns every record of the newest runs, in append order.
	Recent(ctx context.Context, runs int) ([]Record, error)

	// Prune deletes all but the newest keep runs and reports how many
	// records were removed.
	Prune(ctx context.Context, keep int) (int64, error)

	Close() error
}
