// Package cli implements the subledger command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xraph/subledger/internal/config"
	"github.com/xraph/subledger/internal/logger"
)

type options struct {
	cfgFile  string
	logLevel string
	keyFile  string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "subledger",
		Short: "Subscription marketplace on deterministically addressed records",
		Long: `subledger lets creators publish subscription plans and subscribers pay
for time-bounded access. Every plan and subscription lives at an address
derived from its key fields, and every operation is one atomic transition.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Logger.Level = opts.logLevel
			}
			opts.cfg = cfg
			opts.logger = logger.Init(cmd.ErrOrStderr(), cfg.Logger.Level, cfg.Logger.Format)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file path (default: ./subledger.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logger.level")
	root.PersistentFlags().StringVarP(&opts.keyFile, "keypair", "k", defaultKeyFile(), "keypair file used to sign")

	root.AddCommand(
		newKeygenCommand(opts),
		newAddressCommand(opts),
		newAirdropCommand(opts),
		newBalanceCommand(opts),
		newPlanCommand(opts),
		newSubscribeCommand(opts),
		newSubscriptionCommand(opts),
		newCheckCommand(opts),
		newMigrateCommand(opts),
		newServeCommand(opts),
	)
	return root
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func defaultKeyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "subledger-key.json"
	}
	return filepath.Join(home, ".subledger", "id.json")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
