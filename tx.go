package amqp

import (
	"context"

	"github.com/kestrelmq/amqp/internal/wire"
)

// TxSelect puts the channel into transactional mode (Tx.Select). Once
// selected, every Basic.Publish and Basic.Ack/Nack/Reject on the channel
// is held by the broker until TxCommit or TxRollback, matching
// aiorabbit.tx_select.
func (c *Client) TxSelect(ctx context.Context) error {
	if err := c.write(wire.TxSelectMethod{}); err != nil {
		return err
	}
	if err := c.sm.SetState(StateTxSelectSent, nil); err != nil {
		return err
	}
	if _, err := c.waitForState(ctx, StateTxSelectOkReceived); err != nil {
		return err
	}
	c.mu.Lock()
	c.transactional = true
	c.mu.Unlock()
	return nil
}

// TxCommit commits the current transaction (Tx.Commit). ErrNoTransaction
// is returned if TxSelect was never called, mirroring aiorabbit's
// NoTransactionError guard.
func (c *Client) TxCommit(ctx context.Context) error {
	if !c.isTransactional() {
		return ErrNoTransaction
	}
	if err := c.write(wire.TxCommitMethod{}); err != nil {
		return err
	}
	if err := c.sm.SetState(StateTxCommitSent, nil); err != nil {
		return err
	}
	_, err := c.waitForState(ctx, StateTxCommitOkReceived)
	return err
}

// TxRollback discards everything published or acked since the start of
// the current transaction (Tx.Rollback).
func (c *Client) TxRollback(ctx context.Context) error {
	if !c.isTransactional() {
		return ErrNoTransaction
	}
	if err := c.write(wire.TxRollbackMethod{}); err != nil {
		return err
	}
	if err := c.sm.SetState(StateTxRollbackSent, nil); err != nil {
		return err
	}
	_, err := c.waitForState(ctx, StateTxRollbackOkReceived)
	return err
}

func (c *Client) isTransactional() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transactional
}
