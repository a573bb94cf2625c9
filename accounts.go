package subledger

import (
	"context"

	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/plugin"
	"github.com/xraph/subledger/store"
)

// Balance returns the spendable balance of addr.
func (l *Ledger) Balance(ctx context.Context, addr account.Address) (uint64, error) {
	return l.store.Balance(ctx, addr)
}

// Airdrop credits amount to addr. It is the funding path for development
// networks and tests; production deployments leave it unexposed.
func (l *Ledger) Airdrop(ctx context.Context, addr account.Address, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, l.reportFailure(ctx, plugin.OpAirdrop, addr, ErrInvalidAmount)
	}

	var balance uint64
	txID, err := l.transition(ctx, plugin.OpAirdrop, addr, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Credit(ctx, addr, amount); err != nil {
			return err
		}
		b, err := tx.Balance(ctx, addr)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.logger.Info("airdrop", "tx_id", txID.String(), "account", addr.String(), "amount", amount, "balance", balance)
	l.plugins.EmitAccountFunded(ctx, &plugin.AccountFunded{
		ID:      id.NewEventID(),
		TxID:    txID,
		Address: addr,
		Amount:  amount,
		Balance: balance,
	})
	return balance, nil
}
