package cli

import (
	"github.com/spf13/cobra"

	"github.com/xraph/subledger/types"
)

type balanceView struct {
	Address string       `json:"address"`
	Balance types.Amount `json:"balance"`
}

func newAirdropCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "airdrop <amount> [address]",
		Short: "Credit an account (development networks)",
		Long: `Credit an account. Amounts are lamports ("100000000") or SOL with a
suffix ("0.1sol"). The address defaults to the keypair's.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := types.ParseAmount(args[0])
			if err != nil {
				return err
			}
			addr, err := o.addressArg(args, 1)
			if err != nil {
				return err
			}
			return o.withApp(cmd.Context(), func(a *app) error {
				bal, err := a.ledger.Airdrop(cmd.Context(), addr, amount.Lamports())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), balanceView{addr.String(), types.Amount(bal)})
			})
		},
	}
}

func newBalanceCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Show an account balance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := o.addressArg(args, 0)
			if err != nil {
				return err
			}
			return o.withApp(cmd.Context(), func(a *app) error {
				bal, err := a.ledger.Balance(cmd.Context(), addr)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), balanceView{addr.String(), types.Amount(bal)})
			})
		},
	}
}

func newMigrateCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Starting the engine migrates the store.
			return o.withApp(cmd.Context(), func(*app) error {
				o.logger.Info("migrations applied", "driver", o.cfg.Store.Driver)
				return nil
			})
		},
	}
}
