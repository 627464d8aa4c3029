package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTx runs units of work as multi-document transactions. It needs a
// replica set or sharded cluster.
type MongoTx struct {
	client *mongo.Client
}

func NewMongoTx(client *mongo.Client) *MongoTx {
	return &MongoTx{client: client}
}

// WithTx starts a session and runs fn in a transaction on it. The driver
// retries fn on transient write conflicts, so fn must not have side effects
// outside the database. Any error from fn aborts and rolls back everything
// fn wrote.
func (t *MongoTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
