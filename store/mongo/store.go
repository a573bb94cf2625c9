// Package mongo implements store.Store on MongoDB.
//
// Every transition runs inside a multi-document transaction, so the
// server must be a replica set or sharded cluster. Write conflicts
// between concurrent transitions surface as transient transaction errors
// and are retried by the driver.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/checked"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/subscription"
)

// Collection name constants.
const (
	colAccounts      = "subledger_accounts"
	colPlans         = "subledger_plans"
	colSubscriptions = "subledger_subscriptions"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using the official MongoDB driver.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to uri and uses the named database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("subledger/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("subledger/mongo: ping: %w", err)
	}
	return New(client, database), nil
}

// New wraps a connected client.
func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// Database returns the underlying database handle.
func (s *Store) Database() *mongo.Database { return s.db }

// Migrate creates indexes for all subledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("subledger/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// RunInTx implements store.Store. fn may be invoked more than once when
// the server reports a transient conflict.
func (s *Store) RunInTx(ctx context.Context, fn store.TxFunc) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("subledger/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx, &mongoTx{db: s.db})
	})
	return err
}

func (s *Store) Balance(ctx context.Context, addr account.Address) (uint64, error) {
	return readBalance(ctx, s.db, addr)
}

func (s *Store) GetPlan(ctx context.Context, addr account.Address) (*plan.Plan, error) {
	return readPlan(ctx, s.db, addr)
}

func (s *Store) GetSubscription(ctx context.Context, addr account.Address) (*subscription.Subscription, error) {
	return readSubscription(ctx, s.db, addr)
}

// ==================== Reads ====================

func readBalance(ctx context.Context, db *mongo.Database, addr account.Address) (uint64, error) {
	var m accountModel
	err := db.Collection(colAccounts).FindOne(ctx, bson.M{"_id": addr.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("subledger/mongo: get balance: %w", err)
	}
	return parseUint(m.Balance)
}

func readPlan(ctx context.Context, db *mongo.Database, addr account.Address) (*plan.Plan, error) {
	var m planModel
	err := db.Collection(colPlans).FindOne(ctx, bson.M{"_id": addr.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, subledger.ErrPlanNotFound
		}
		return nil, fmt.Errorf("subledger/mongo: get plan: %w", err)
	}
	return fromPlanModel(&m)
}

func readSubscription(ctx context.Context, db *mongo.Database, addr account.Address) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := db.Collection(colSubscriptions).FindOne(ctx, bson.M{"_id": addr.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, subledger.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("subledger/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

// ==================== Transition ====================

// mongoTx relies on the session carried by ctx; every call must use the
// context handed to the TxFunc.
type mongoTx struct {
	db *mongo.Database
}

func (t *mongoTx) Balance(ctx context.Context, addr account.Address) (uint64, error) {
	return readBalance(ctx, t.db, addr)
}

func (t *mongoTx) GetPlan(ctx context.Context, addr account.Address) (*plan.Plan, error) {
	return readPlan(ctx, t.db, addr)
}

func (t *mongoTx) GetSubscription(ctx context.Context, addr account.Address) (*subscription.Subscription, error) {
	return readSubscription(ctx, t.db, addr)
}

func (t *mongoTx) setBalance(ctx context.Context, addr account.Address, balance uint64) error {
	_, err := t.db.Collection(colAccounts).UpdateOne(ctx,
		bson.M{"_id": addr.String()},
		bson.M{"$set": bson.M{"balance": formatUint(balance)}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("subledger/mongo: set balance: %w", err)
	}
	return nil
}

func (t *mongoTx) Credit(ctx context.Context, addr account.Address, amount uint64) error {
	current, err := t.Balance(ctx, addr)
	if err != nil {
		return err
	}
	next, err := checked.AddU64(current, amount)
	if err != nil {
		return err
	}
	return t.setBalance(ctx, addr, next)
}

func (t *mongoTx) Transfer(ctx context.Context, from, to account.Address, amount uint64) error {
	fromBal, err := t.Balance(ctx, from)
	if err != nil {
		return err
	}
	fromNext, err := checked.SubU64(fromBal, amount)
	if err != nil {
		return subledger.ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toBal, err := t.Balance(ctx, to)
	if err != nil {
		return err
	}
	toNext, err := checked.AddU64(toBal, amount)
	if err != nil {
		return err
	}
	if err := t.setBalance(ctx, from, fromNext); err != nil {
		return err
	}
	return t.setBalance(ctx, to, toNext)
}

func (t *mongoTx) InsertPlan(ctx context.Context, p *plan.Plan) error {
	if err := t.vacant(ctx, colSubscriptions, p.Address); err != nil {
		return err
	}
	if _, err := t.db.Collection(colPlans).InsertOne(ctx, toPlanModel(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return subledger.ErrAlreadyInitialized
		}
		return fmt.Errorf("subledger/mongo: insert plan: %w", err)
	}
	return nil
}

func (t *mongoTx) InsertSubscription(ctx context.Context, sub *subscription.Subscription) error {
	if err := t.vacant(ctx, colPlans, sub.Address); err != nil {
		return err
	}
	if _, err := t.db.Collection(colSubscriptions).InsertOne(ctx, toSubscriptionModel(sub)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return subledger.ErrAlreadyInitialized
		}
		return fmt.Errorf("subledger/mongo: insert subscription: %w", err)
	}
	return nil
}

// vacant fails with ErrAlreadyInitialized when addr holds a document in
// the other record collection.
func (t *mongoTx) vacant(ctx context.Context, collection string, addr account.Address) error {
	n, err := t.db.Collection(collection).CountDocuments(ctx, bson.M{"_id": addr.String()})
	if err != nil {
		return fmt.Errorf("subledger/mongo: check address: %w", err)
	}
	if n > 0 {
		return subledger.ErrAlreadyInitialized
	}
	return nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the secondary index definitions. Record
// uniqueness comes from _id.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colPlans: {
			{
				Keys:    bson.D{{Key: "creator", Value: 1}, {Key: "plan_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colSubscriptions: {
			{Keys: bson.D{{Key: "subscriber", Value: 1}}},
			{Keys: bson.D{{Key: "creator", Value: 1}, {Key: "plan_id", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		},
	}
}
