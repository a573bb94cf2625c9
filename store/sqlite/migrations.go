package sqlite

// migration is one forward-only schema step.
type migration struct {
	version string
	name    string
	up      string
}

// Unsigned 64-bit quantities are stored as decimal TEXT: SQLite integers
// are signed.
var migrations = []migration{
	{
		version: "20250101000001",
		name:    "create_subledger_accounts",
		up: `
CREATE TABLE IF NOT EXISTS subledger_accounts (
    address TEXT PRIMARY KEY,
    balance TEXT NOT NULL DEFAULT '0'
);`,
	},
	{
		version: "20250101000002",
		name:    "create_subledger_plans",
		up: `
CREATE TABLE IF NOT EXISTS subledger_plans (
    address       TEXT PRIMARY KEY,
    creator       TEXT NOT NULL,
    plan_id       TEXT NOT NULL,
    name          TEXT NOT NULL,
    price         TEXT NOT NULL,
    duration_days INTEGER NOT NULL,
    created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_subledger_plans_creator ON subledger_plans (creator);`,
	},
	{
		version: "20250101000003",
		name:    "create_subledger_subscriptions",
		up: `
CREATE TABLE IF NOT EXISTS subledger_subscriptions (
    address    TEXT PRIMARY KEY,
    subscriber TEXT NOT NULL,
    creator    TEXT NOT NULL,
    plan_id    TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_subledger_subscriptions_subscriber ON subledger_subscriptions (subscriber);
CREATE INDEX IF NOT EXISTS idx_subledger_subscriptions_creator ON subledger_subscriptions (creator, plan_id);`,
	},
}
