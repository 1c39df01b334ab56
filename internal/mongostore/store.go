// Package mongostore keeps menu items, orders and the order counter in
// MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/digital-menu/api/internal/menu"
	"github.com/digital-menu/api/internal/metrics"
	"github.com/digital-menu/api/internal/order"
)

const (
	collMenuItems = "menuItems"
	collOrders    = "orders"
	collAppConfig = "appConfig"

	// CounterID is the appConfig document holding the order counter.
	CounterID = "orderCounter"
)

var (
	errCounterConflict = errors.New("order counter changed concurrently")
	errCounterUnset    = errors.New("order counter has no positive value")
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the connection and ensures the indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	clientOpts := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collOrders).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "deviceId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create order indexes: %w", err)
	}
	_, err = s.db.Collection(collMenuItems).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create menu index: %w", err)
	}
	return nil
}

// --- Order counter ---

// NextOrderNumber returns the current counter value and stores value+1.
// A positive counter is bumped by a single atomic $inc. A NULL or
// non-positive counter is claimed with a write conditioned on the value
// that was read; whoever loses that race goes back to $inc.
func (s *Store) NextOrderNumber(ctx context.Context) (int64, error) {
	for {
		n, err := s.incCounter(ctx)
		if !errors.Is(err, errCounterUnset) {
			return n, err
		}

		n, err = s.claimUnsetCounter(ctx)
		if !errors.Is(err, errCounterConflict) {
			return n, err
		}
		metrics.CounterRetries.Inc()
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
}

func (s *Store) incCounter(ctx context.Context) (int64, error) {
	var doc struct {
		Counter int64 `bson:"counter"`
	}
	err := s.db.Collection(collAppConfig).FindOneAndUpdate(ctx,
		bson.M{"_id": CounterID, "counter": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"counter": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, errCounterUnset
		}
		return 0, fmt.Errorf("increment order counter: %w", err)
	}
	return doc.Counter - 1, nil
}

// claimUnsetCounter hands out 1001 from a missing, NULL or non-positive
// counter and stores 1002.
func (s *Store) claimUnsetCounter(ctx context.Context) (int64, error) {
	coll := s.db.Collection(collAppConfig)

	var doc struct {
		Counter *int64 `bson:"counter"`
	}
	err := coll.FindOne(ctx, bson.M{"_id": CounterID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, order.ErrCounterMissing
		}
		return 0, fmt.Errorf("read order counter: %w", err)
	}
	if doc.Counter != nil && *doc.Counter > 0 {
		return 0, errCounterConflict
	}

	// {counter: null} also matches a document without the field.
	filter := bson.M{"_id": CounterID, "counter": nil}
	if doc.Counter != nil {
		filter["counter"] = *doc.Counter
	}
	start := order.DefaultCounterStart
	res, err := coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"counter": start + 1, "updatedAt": time.Now()}})
	if err != nil {
		return 0, fmt.Errorf("update order counter: %w", err)
	}
	if res.MatchedCount == 0 {
		return 0, errCounterConflict
	}
	return start, nil
}

// EnsureOrderCounter creates the counter document at start unless it exists.
func (s *Store) EnsureOrderCounter(ctx context.Context, start int64) error {
	_, err := s.db.Collection(collAppConfig).UpdateOne(ctx,
		bson.M{"_id": CounterID},
		bson.M{"$setOnInsert": bson.M{"counter": start}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("init order counter: %w", err)
	}
	return nil
}

// --- Orders ---

func (s *Store) AddOrder(ctx context.Context, o order.Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	doc, err := orderToDoc(o)
	if err != nil {
		return err
	}
	if _, err := s.db.Collection(collOrders).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// ListOrdersByDevice returns up to limit orders of a device, newest first.
func (s *Store) ListOrdersByDevice(ctx context.Context, deviceID string, limit int) ([]order.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cur, err := s.db.Collection(collOrders).Find(ctx, bson.M{"deviceId": deviceID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cur.Close(ctx)

	out := []order.Order{}
	for cur.Next(ctx) {
		var d orderDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		o, err := orderFromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, number int64, status string) error {
	res, err := s.db.Collection(collOrders).UpdateOne(ctx,
		bson.M{"orderNumber": number},
		bson.M{"$set": bson.M{"adminStatus": status}},
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// --- Menu ---

// ListMenuItems returns the available items, oldest first.
func (s *Store) ListMenuItems(ctx context.Context) ([]menu.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.db.Collection(collMenuItems).Find(ctx, bson.M{"status": "available"}, opts)
	if err != nil {
		return nil, fmt.Errorf("find menu items: %w", err)
	}
	defer cur.Close(ctx)

	items := []menu.Item{}
	for cur.Next(ctx) {
		var d menuDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode menu item: %w", err)
		}
		items = append(items, itemFromDoc(d))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}
	return items, nil
}

// UpsertMenuItem replaces the item's fields, keeping createdAt of an
// existing document.
func (s *Store) UpsertMenuItem(ctx context.Context, it menu.Item) (menu.Item, error) {
	it = menu.Normalize(it)
	created := it.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	coll := s.db.Collection(collMenuItems)
	_, err := coll.UpdateOne(ctx,
		bson.M{"_id": it.ID},
		bson.M{
			"$set":         itemToWriteDoc(it),
			"$setOnInsert": bson.M{"createdAt": created},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return menu.Item{}, fmt.Errorf("upsert menu item: %w", err)
	}

	var d menuDoc
	if err := coll.FindOne(ctx, bson.M{"_id": it.ID}).Decode(&d); err != nil {
		return menu.Item{}, fmt.Errorf("read menu item: %w", err)
	}
	return itemFromDoc(d), nil
}

// Subscribe delivers the available items now and again after every change
// to the menuItems collection. Change streams need a replica set; on a
// standalone server Watch fails and the error is returned.
func (s *Store) Subscribe(ctx context.Context, onSnapshot func([]menu.Item)) error {
	cs, err := s.db.Collection(collMenuItems).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return fmt.Errorf("watch menu items: %w", err)
	}
	defer cs.Close(context.Background())

	items, err := s.ListMenuItems(ctx)
	if err != nil {
		return err
	}
	onSnapshot(items)

	for cs.Next(ctx) {
		items, err := s.ListMenuItems(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		onSnapshot(items)
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := cs.Err(); err != nil {
		return fmt.Errorf("menu change stream: %w", err)
	}
	return nil
}
