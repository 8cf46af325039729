// Package commands holds the write-side flows: the operator intake that turns
// a scanned card into a pending order, and the dispatcher's status advances.
// Every handler validates its command, works inside one unit of work, and
// converts store failures into the sentinels declared in errors.go.
package commands

import (
	"context"

	"ekanban/internal/core/ports"
)

type (
	// TxManager handles the transaction lifecycle of one command.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides the order repository bound to the transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// OrderUoW is the unit of work used by the intake and dispatch commands.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   created, err := uow.OrderRepository().Add(ctx, draft)
	//   // ...
	//   err = uow.Commit(ctx)
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates a fresh unit of work per command.
	OrderUoWFactory interface {
		Create() OrderUoW
	}
)
