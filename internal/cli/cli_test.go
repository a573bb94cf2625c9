package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/rent"
	"github.com/xraph/subledger/subscription"
)

type harness struct {
	t       *testing.T
	dir     string
	cfgPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := filepath.Join(dir, "subledger.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
logger:
  level: error
store:
  driver: sqlite
  dsn: `+filepath.Join(dir, "ledger.db")+`
`), 0o600))
	return &harness{t: t, dir: dir, cfgPath: cfg}
}

func (h *harness) key(name string) string { return filepath.Join(h.dir, name+".json") }

// run executes one CLI invocation and returns stdout.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", h.cfgPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "subledger %v", args)
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	return v
}

type balanceOut struct {
	Address string `json:"address"`
	Balance struct {
		Lamports uint64 `json:"lamports"`
		Display  string `json:"display"`
	} `json:"balance"`
}

func TestKeygen(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("keygen", "--keypair", h.key("alice"))
	got := decode[map[string]string](t, out)
	addr, err := account.Parse(got["address"])
	require.NoError(t, err)

	printed := h.mustRun("address", "--keypair", h.key("alice"))
	assert.Equal(t, addr.String()+"\n", printed)

	_, err = h.run("keygen", "--keypair", h.key("alice"))
	assert.ErrorContains(t, err, "--force")

	h.mustRun("keygen", "--keypair", h.key("alice"), "--force")
	assert.NotEqual(t, addr.String()+"\n", h.mustRun("address", "--keypair", h.key("alice")))
}

func TestSubscriptionFlow(t *testing.T) {
	h := newHarness(t)
	creatorKey, subscriberKey := h.key("creator"), h.key("subscriber")

	creator := decode[map[string]string](t, h.mustRun("keygen", "--keypair", creatorKey))["address"]
	decode[map[string]string](t, h.mustRun("keygen", "--keypair", subscriberKey))

	funded := decode[balanceOut](t, h.mustRun("airdrop", "2sol", "--keypair", creatorKey))
	assert.Equal(t, creator, funded.Address)
	assert.Equal(t, uint64(2_000_000_000), funded.Balance.Lamports)
	h.mustRun("airdrop", "1sol", "--keypair", subscriberKey)

	type planOut struct {
		plan.Plan
		SubscribeCost struct {
			Lamports uint64 `json:"lamports"`
		} `json:"subscribe_cost"`
	}
	p := decode[planOut](t, h.mustRun("plan", "create",
		"--keypair", creatorKey,
		"--id", "1",
		"--name", "Pro",
		"--price", "0.1sol",
		"--days", "30",
	))
	assert.Equal(t, "Pro", p.Name)
	assert.Equal(t, uint64(100_000_000), p.Price)
	assert.Equal(t, creator, p.Creator.String())

	subRent, err := rent.Default().MinimumBalance(subscription.Size)
	require.NoError(t, err)
	assert.Equal(t, 100_000_000+subRent+subledger.TransactionFeeBuffer, p.SubscribeCost.Lamports)

	shown := decode[planOut](t, h.mustRun("plan", "show", "--keypair", creatorKey, "--id", "1"))
	assert.Equal(t, p.Address, shown.Address)
	assert.Equal(t, p.SubscribeCost, shown.SubscribeCost)

	type subOut struct {
		subscription.Subscription
		Active bool `json:"active"`
	}
	sub := decode[subOut](t, h.mustRun("subscribe",
		"--keypair", subscriberKey,
		"--creator", creator,
		"--id", "1",
	))
	assert.True(t, sub.Active)
	assert.Equal(t, int64(30*subledger.SecondsPerDay), sub.ExpiresAt-sub.CreatedAt)

	check := decode[map[string]any](t, h.mustRun("check", sub.Address.String(), "--strict"))
	assert.Equal(t, true, check["active"])

	planRent, err := rent.Default().MinimumBalance(plan.Size)
	require.NoError(t, err)
	bal := decode[balanceOut](t, h.mustRun("balance", creator))
	assert.Equal(t, 2_000_000_000-planRent+100_000_000, bal.Balance.Lamports)

	// The plan id is taken.
	_, err = h.run("plan", "create", "--keypair", creatorKey, "--id", "1", "--name", "Again", "--price", "1")
	assert.ErrorIs(t, err, subledger.ErrAlreadyInitialized)

	// A creator cannot subscribe to their own plan.
	_, err = h.run("subscribe", "--keypair", creatorKey, "--creator", creator, "--plan", p.Address.String())
	assert.ErrorIs(t, err, subledger.ErrCannotSubscribeToOwnPlan)
}

func TestCommandErrors(t *testing.T) {
	h := newHarness(t)
	key := h.key("k")
	h.mustRun("keygen", "--keypair", key)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "bad amount", args: []string{"airdrop", "ten", "--keypair", key}},
		{name: "zero airdrop", args: []string{"airdrop", "0", "--keypair", key}, wantErr: subledger.ErrInvalidAmount},
		{name: "bad address", args: []string{"balance", "nope"}, wantErr: account.ErrInvalidAddress},
		{name: "missing plan", args: []string{"plan", "show", "--keypair", key, "--id", "9"}, wantErr: subledger.ErrPlanNotFound},
		{name: "unfunded plan", args: []string{"plan", "create", "--keypair", key, "--name", "x", "--price", "1"}, wantErr: subledger.ErrInsufficientFundsToCreatePlan},
		{name: "missing keypair", args: []string{"balance", "--keypair", h.key("absent")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestUnknownDriver(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.cfgPath, []byte("store:\n  driver: cassandra\n"), 0o600))

	_, err := h.run("balance", account.Derive("x").String())
	assert.ErrorContains(t, err, "cassandra")
}
