package build

import (
	"context"

	"git.home.luguber.info/inful/zephyrforge/internal/eventstore"
)

// DefaultHistoryLimit bounds the runs returned by History when limit <= 0.
const DefaultHistoryLimit = 20

// History replays store and returns the most recent finished runs, newest
// first.
func History(ctx context.Context, store eventstore.Store, limit int) ([]eventstore.RunSummary, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	p := eventstore.NewRunHistoryProjection(store, limit)
	if err := p.Rebuild(ctx); err != nil {
		return nil, err
	}
	return p.GetHistory(), nil
}
