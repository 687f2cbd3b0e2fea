package repository

import "context"

// Tx is an opaque transaction handle. Its concrete type is infra-defined
// (pgx.Tx for Postgres); repositories must gracefully accept NoTX and fall
// back to their pool.
type Tx interface{}

// NoTX marks a non-transactional call.
var NoTX Tx

// TransactionManager executes a function within a database transaction,
// passing the handle through `tx`. Keeping the handle opaque means no
// storage types leak into use-case interfaces, while implementations can
// still run SELECT ... FOR UPDATE or advisory locks on the tx.
//
// WithUserTx additionally serializes on the given user before invoking fn:
// all mutations of a user's subscription are read-modify-write, so every
// writer for the same user must hold the same lock.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	WithUserTx(ctx context.Context, userID string, fn func(ctx context.Context, tx Tx) error) error
}
