package postgres

type migration struct {
	version string
	name    string
	up      string
}

var migrations = []migration{
	{
		version: "20250101000001",
		name:    "create_subledger_accounts",
		up: `
CREATE TABLE IF NOT EXISTS subledger_accounts (
    address TEXT PRIMARY KEY,
    balance NUMERIC(20, 0) NOT NULL DEFAULT 0 CHECK (balance >= 0 AND balance <= 18446744073709551615)
);`,
	},
	{
		version: "20250101000002",
		name:    "create_subledger_plans",
		up: `
CREATE TABLE IF NOT EXISTS subledger_plans (
    address       TEXT PRIMARY KEY,
    creator       TEXT NOT NULL,
    plan_id       NUMERIC(20, 0) NOT NULL,
    name          TEXT NOT NULL,
    price         NUMERIC(20, 0) NOT NULL,
    duration_days INTEGER NOT NULL,
    created_at    BIGINT NOT NULL
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
    plan_id    NUMERIC(20, 0) NOT NULL,
    created_at BIGINT NOT NULL,
    expires_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_subledger_subscriptions_subscriber ON subledger_subscriptions (subscriber);
CREATE INDEX IF NOT EXISTS idx_subledger_subscriptions_creator ON subledger_subscriptions (creator, plan_id);`,
	},
}
