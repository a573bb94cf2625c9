package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/subscription"
)

type subscriptionView struct {
	*subscription.Subscription
	Active    bool   `json:"active"`
	Remaining string `json:"remaining"`
}

func viewOf(l *subledger.Ledger, sub *subscription.Subscription) subscriptionView {
	left := sub.Remaining(l.Now())
	return subscriptionView{
		Subscription: sub,
		Active:       left > 0,
		Remaining:    (time.Duration(left) * time.Second).String(),
	}
}

func newSubscribeCommand(o *options) *cobra.Command {
	var (
		creator string
		planID  uint64
		planArg string
	)
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Pay for a plan as the keypair",
		Long: `Subscribe the keypair's account to a plan. Name the plan with --plan, or
with --creator and --id. --creator is always required: it is the account
that receives the payment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := subledger.SubscribeInput{PlanID: planID}
			var err error
			if in.Creator, err = account.Parse(creator); err != nil {
				return fmt.Errorf("--creator: %w", err)
			}
			if planArg != "" {
				if in.Plan, err = account.Parse(planArg); err != nil {
					return fmt.Errorf("--plan: %w", err)
				}
			}
			kp, err := o.keypair()
			if err != nil {
				return err
			}
			return o.withApp(cmd.Context(), func(a *app) error {
				sub, err := a.ledger.Subscribe(cmd.Context(), kp.Signer(), in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), viewOf(a.ledger, sub))
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&creator, "creator", "", "plan creator address")
	f.Uint64Var(&planID, "id", 0, "plan id")
	f.StringVar(&planArg, "plan", "", "plan address")
	_ = cmd.MarkFlagRequired("creator")
	return cmd
}

func newSubscriptionCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Inspect subscriptions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <address>",
		Short: "Show a subscription record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := account.Parse(args[0])
			if err != nil {
				return err
			}
			return o.withApp(cmd.Context(), func(a *app) error {
				sub, err := a.ledger.GetSubscription(cmd.Context(), addr)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), viewOf(a.ledger, sub))
			})
		},
	})
	return cmd
}

func newCheckCommand(o *options) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check <subscription-address>",
		Short: "Report whether a subscription is active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := account.Parse(args[0])
			if err != nil {
				return err
			}
			return o.withApp(cmd.Context(), func(a *app) error {
				active, err := a.ledger.CheckSubscription(cmd.Context(), addr)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), map[string]any{
					"address": addr.String(),
					"active":  active,
				}); err != nil {
					return err
				}
				if strict && !active {
					return subledger.ErrSubscriptionExpired
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the subscription has expired")
	return cmd
}
