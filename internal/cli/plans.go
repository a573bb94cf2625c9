package cli

import (
	"github.com/spf13/cobra"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/checked"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/subscription"
	"github.com/xraph/subledger/types"
)

type planView struct {
	*plan.Plan
	// SubscribeCost is the balance a subscriber must hold: price, the
	// subscription record's rent and the fee buffer.
	SubscribeCost types.Amount `json:"subscribe_cost"`
}

func planViewOf(l *subledger.Ledger, p *plan.Plan) (planView, error) {
	subRent, err := l.RentFor(subscription.Size)
	if err != nil {
		return planView{}, err
	}
	cost, err := checked.SumU64(p.Price, subRent, subledger.TransactionFeeBuffer)
	if err != nil {
		return planView{}, err
	}
	return planView{Plan: p, SubscribeCost: types.Amount(cost)}, nil
}

func (o *options) printPlan(cmd *cobra.Command, l *subledger.Ledger, p *plan.Plan) error {
	v, err := planViewOf(l, p)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), v)
}

func newPlanCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Create and inspect subscription plans",
	}
	cmd.AddCommand(newPlanCreateCommand(o), newPlanShowCommand(o))
	return cmd
}

func newPlanCreateCommand(o *options) *cobra.Command {
	var (
		planID uint64
		name   string
		price  string
		days   uint32
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a plan signed by the keypair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := types.ParseAmount(price)
			if err != nil {
				return err
			}
			kp, err := o.keypair()
			if err != nil {
				return err
			}
			return o.withApp(cmd.Context(), func(a *app) error {
				p, err := a.ledger.CreatePlan(cmd.Context(), kp.Signer(), subledger.CreatePlanInput{
					PlanID:       planID,
					Name:         name,
					Price:        amount.Lamports(),
					DurationDays: days,
				})
				if err != nil {
					return err
				}
				return o.printPlan(cmd, a.ledger, p)
			})
		},
	}
	f := cmd.Flags()
	f.Uint64Var(&planID, "id", 0, "creator-chosen plan id")
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&price, "price", "", `price in lamports or SOL ("0.1sol")`)
	f.Uint32Var(&days, "days", 30, "subscription length in days")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newPlanShowCommand(o *options) *cobra.Command {
	var (
		creator string
		planID  uint64
	)
	cmd := &cobra.Command{
		Use:   "show [plan-address]",
		Short: "Show a plan by address, or by --creator and --id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var addr account.Address
			if len(args) == 1 {
				a, err := account.Parse(args[0])
				if err != nil {
					return err
				}
				addr = a
			} else {
				c, err := o.addressFlag(creator)
				if err != nil {
					return err
				}
				addr = account.PlanAddress(c, planID)
			}
			return o.withApp(cmd.Context(), func(a *app) error {
				p, err := a.ledger.GetPlan(cmd.Context(), addr)
				if err != nil {
					return err
				}
				return o.printPlan(cmd, a.ledger, p)
			})
		},
	}
	cmd.Flags().StringVar(&creator, "creator", "", "creator address (default: keypair address)")
	cmd.Flags().Uint64Var(&planID, "id", 0, "plan id")
	return cmd
}

// addressFlag parses a flag value, falling back to the keypair address.
func (o *options) addressFlag(v string) (account.Address, error) {
	if v != "" {
		return account.Parse(v)
	}
	return o.addressArg(nil, 0)
}
