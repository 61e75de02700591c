package application

import (
	"context"
	"fmt"
	"time"

	"royalwager/domain/interfaces"
)

// runInUnitOfWork runs fn inside one transaction bounded by timeout, committing when fn succeeds.
// Events published on uow.EventBus() are delivered only after the commit.
func runInUnitOfWork(ctx context.Context, factory interfaces.UnitOfWorkFactory, timeout time.Duration, fn func(ctx context.Context, uow interfaces.UnitOfWork) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(ctx, uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
