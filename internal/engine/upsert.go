package engine

import (
	"context"
	"errors"

	"pgdapi/internal/domain"
	"pgdapi/internal/repo"
)

// upsertSteps are the plan-specific parts of an upsert.
type upsertSteps[T any] struct {
	find func(ctx context.Context) (T, error)
	// build merges the payload over prev (zero when !exists) and runs the
	// checks that need the merged record or the store.
	build   func(ctx context.Context, prev T, exists bool) (T, error)
	insert  func(ctx context.Context, rec T) error
	replace func(ctx context.Context, rec T) error
	event   func(rec T, outcome Outcome) domain.Event
}

// runUpsert looks the natural key up, then inserts or replaces, all inside
// one store transaction. A missing record means create; writes never report
// not found.
func runUpsert[T any](ctx context.Context, store Store, steps upsertSteps[T]) (T, Outcome, error) {
	var (
		rec     T
		outcome Outcome
	)
	err := store.RunInTx(ctx, func(ctx context.Context) error {
		prev, err := steps.find(ctx)
		exists := true
		if errors.Is(err, repo.ErrNotFound) {
			exists = false
		} else if err != nil {
			return err
		}
		built, err := steps.build(ctx, prev, exists)
		if err != nil {
			return err
		}
		if exists {
			outcome = Updated
			err = steps.replace(ctx, built)
		} else {
			outcome = Created
			err = steps.insert(ctx, built)
		}
		if err != nil {
			return err
		}
		rec = built
		return store.AppendEvent(ctx, steps.event(built, outcome))
	})
	if err != nil {
		var zero T
		return zero, 0, err
	}
	return rec, outcome, nil
}
