package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/auth"
)

func newKeygenCommand(o *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing keypair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(o.keyFile); err == nil && !force {
				return fmt.Errorf("%s exists; pass --force to overwrite", o.keyFile)
			}
			kp, err := auth.GenerateKeypair()
			if err != nil {
				return err
			}
			if err := auth.SaveKeypair(o.keyFile, kp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"address": kp.Address().String(),
				"keypair": o.keyFile,
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing keypair file")
	return cmd
}

func newAddressCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the address of the keypair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kp, err := auth.LoadKeypair(o.keyFile)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), kp.Address().String())
			return err
		},
	}
}

func (o *options) keypair() (*auth.Keypair, error) {
	kp, err := auth.LoadKeypair(o.keyFile)
	if err != nil {
		return nil, fmt.Errorf("load keypair (run keygen first): %w", err)
	}
	return kp, nil
}

// addressArg resolves args[i] or, when absent, the keypair address.
func (o *options) addressArg(args []string, i int) (account.Address, error) {
	if len(args) > i {
		return account.Parse(args[i])
	}
	kp, err := o.keypair()
	if err != nil {
		return account.Zero, err
	}
	return kp.Address(), nil
}
