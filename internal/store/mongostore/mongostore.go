package mongostore

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gurudharsan/weighease/internal/store"
	"github.com/gurudharsan/weighease/internal/weighbridge"
)

// Store is the MongoDB-backed implementation of EntryStore. It holds a
// shared client so each operation reuses one connection pool.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials the Mongo deployment and returns a store over the
// given database and collection. Close must be called when the store
// is no longer needed to release the connection pool.
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("Connect: mongo client: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("Connect: ping: %w", err)
	}
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if s.client != nil {
		return s.client.Disconnect(ctx)
	}
	return nil
}

// query translates a Filter into the equivalent server-side predicate.
// The party substring is quoted so regex metacharacters in user input
// match literally.
func query(f store.Filter) bson.M {
	q := bson.M{}
	if f.DateFrom != "" {
		q["date"] = bson.M{"$gte": f.DateFrom, "$lt": f.DateTo}
	}
	if f.Party != "" {
		q["party_name"] = bson.M{"$regex": regexp.QuoteMeta(f.Party), "$options": "i"}
	}
	return q
}

// Find returns all entries matching the filter, ordered by descending
// serial.
func (s *Store) Find(ctx context.Context, f store.Filter) ([]weighbridge.Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sno", Value: -1}})
	cur, err := s.coll.Find(ctx, query(f), opts)
	if err != nil {
		return nil, fmt.Errorf("Find: query entries: %w", err)
	}
	defer cur.Close(ctx)

	var entries []weighbridge.Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("Find: decode entries: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given serial, or nil when absent.
func (s *Store) Get(ctx context.Context, serial string) (*weighbridge.Entry, error) {
	var e weighbridge.Entry
	err := s.coll.FindOne(ctx, bson.M{"sno": serial}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: find entry %q: %w", serial, err)
	}
	return &e, nil
}

// Insert stores a new entry document.
func (s *Store) Insert(ctx context.Context, e weighbridge.Entry) error {
	if _, err := s.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("Insert: inserting entry %q: %w", e.Serial, err)
	}
	return nil
}

// UpdateBilling sets rate and total_amount on the entry with the given
// serial and reports the match/modify counts.
func (s *Store) UpdateBilling(ctx context.Context, serial string, rate, total float64) (store.UpdateResult, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"sno": serial},
		bson.M{"$set": bson.M{"rate": rate, "total_amount": total}},
	)
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("UpdateBilling: updating entry %q: %w", serial, err)
	}
	return store.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// Update applies a full edit patch to the entry with the given serial.
func (s *Store) Update(ctx context.Context, serial string, p store.EntryPatch) (store.UpdateResult, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"sno": serial},
		bson.M{"$set": bson.M{
			"party_name":   p.PartyName,
			"net_weight":   p.NetWeight,
			"rate":         p.Rate,
			"total_amount": p.TotalAmount,
		}},
	)
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("Update: updating entry %q: %w", serial, err)
	}
	return store.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// Delete removes the entry with the given serial and reports the
// deleted count.
func (s *Store) Delete(ctx context.Context, serial string) (int64, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"sno": serial})
	if err != nil {
		return 0, fmt.Errorf("Delete: deleting entry %q: %w", serial, err)
	}
	return res.DeletedCount, nil
}

// Ensure Store implements EntryStore.
var _ store.EntryStore = (*Store)(nil)
