// Package subledger is a subscription marketplace recorded as
// deterministically addressed ledger entries.
//
// Creators publish plans; subscribers pay a plan's price to create a
// time-bounded subscription record; anyone can ask whether a subscription
// is still active. Subledger is a library: the engine runs in your
// process over a store.Store of your choice. It provides:
//
//   - Ordered validation of every plan and subscription request
//   - Overflow-checked arithmetic for prices, rent and timestamps
//   - Records addressed by a hash of their key fields, so each slot can
//     be written exactly once
//   - One atomic store transition per operation: all effects or none
//   - Explicit signer capabilities instead of ambient caller identity
//   - Memory, SQLite, PostgreSQL and MongoDB stores, plus a Redis
//     read-through cache
//   - Plugins for audit trails, Prometheus metrics and RabbitMQ events
//
// # Quick Start
//
//	s := memory.New()
//	l := subledger.New(s, subledger.WithLogger(slog.Default()))
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	creator, _ := auth.GenerateKeypair()
//	l.Airdrop(ctx, creator.Address(), 1_000_000_000)
//
//	p, err := l.CreatePlan(ctx, creator.Signer(), subledger.CreatePlanInput{
//	    PlanID:       1,
//	    Name:         "Pro",
//	    Price:        100_000_000,
//	    DurationDays: 30,
//	})
//
// # Core Concepts
//
// A plan lives at PlanAddress(creator, planID). Reusing a plan id fails
// with ErrAlreadyInitialized; plans are never edited.
//
// A subscription lives at SubscriptionAddress(subscriber, creator, planID).
// Subscribe requires the subscriber to hold price + rent +
// TransactionFeeBuffer, moves exactly the price to the creator, and makes
// the subscriber pay the record's rent:
//
//	sub, err := l.Subscribe(ctx, subscriber.Signer(), subledger.SubscribeInput{
//	    Plan:    p.Address,
//	    Creator: creator.Address(),
//	})
//
// Liveness is derived from the stored expiry, never stored:
//
//	active, err := l.CheckSubscription(ctx, sub.Address)
//
// Signers come from auth.Verify (a checked ed25519 signature) or from a
// keypair the process holds. Operations given the zero Signer fail with
// ErrUnauthorized.
package subledger
