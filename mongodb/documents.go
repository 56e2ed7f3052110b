package mongodb

import (
	"context"
	"errors"
	"fmt"

	"finzora/api/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func documentKey(userID, id string) string {
	return userID + ":" + id
}

func ownedBy(userID, id string) bson.M {
	return bson.M{"user_id": userID, "id": id}
}

func toMongo(userID string, doc store.Document) bson.M {
	out := bson.M{}
	for k, v := range doc {
		out[k] = v
	}
	out["_id"] = documentKey(userID, doc.ID())
	out["user_id"] = userID
	return out
}

func fromMongo(raw bson.M) store.Document {
	doc := store.Document{}
	for k, v := range raw {
		if k == "_id" || k == "user_id" {
			continue
		}
		doc[k] = v
	}
	return doc
}

func (b *Backend) Insert(ctx context.Context, userID, collection string, doc store.Document) error {
	_, err := b.collection(collection).InsertOne(ctx, toMongo(userID, doc))
	if err != nil {
		return fmt.Errorf("error creating mongo item: %v", err)
	}
	return nil
}

func (b *Backend) Find(ctx context.Context, userID, collection string, q store.Query) ([]store.Document, error) {
	filter := bson.M{"user_id": userID}
	for k, v := range q.Filter {
		filter[k] = v
	}
	opts := options.Find()
	if q.SortBy != "" {
		opts.SetSort(bson.D{{Key: q.SortBy, Value: -1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := b.collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %v", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []store.Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("error decoding %s: %v", collection, err)
		}
		docs = append(docs, fromMongo(raw))
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}
	return docs, nil
}

func (b *Backend) Get(ctx context.Context, userID, collection, id string) (store.Document, error) {
	var raw bson.M
	err := b.collection(collection).FindOne(ctx, ownedBy(userID, id)).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Not found, but not an error
		}
		return nil, err
	}
	return fromMongo(raw), nil
}

func (b *Backend) Update(ctx context.Context, userID, collection, id string, fields store.Document) (bool, error) {
	res, err := b.collection(collection).UpdateOne(ctx, ownedBy(userID, id), bson.M{"$set": map[string]any(fields)})
	if err != nil {
		return false, fmt.Errorf("error updating mongo item: %v", err)
	}
	return res.MatchedCount > 0, nil
}

func (b *Backend) Upsert(ctx context.Context, userID, collection, id string, doc store.Document) error {
	doc["id"] = id
	opts := options.Replace().SetUpsert(true)
	_, err := b.collection(collection).ReplaceOne(ctx, ownedBy(userID, id), toMongo(userID, doc), opts)
	if err != nil {
		return fmt.Errorf("error replacing mongo item: %w", err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, userID, collection, id string) (bool, error) {
	res, err := b.collection(collection).DeleteOne(ctx, ownedBy(userID, id))
	if err != nil {
		return false, fmt.Errorf("error deleting mongo item: %v", err)
	}
	return res.DeletedCount > 0, nil
}

func (b *Backend) Users(ctx context.Context, collection string) ([]string, error) {
	var users []string
	err := b.collection(collection).Distinct(ctx, "user_id", bson.M{}).Decode(&users)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %v", err)
	}
	return users, nil
}

var _ store.Backend = (*Backend)(nil)
