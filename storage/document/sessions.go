package document

import (
	"context"
	"errors"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// sessionStore keeps sessions in a collection with a TTL index on expiresAt.
// The TTL monitor runs about once a minute, so Get also checks the expiry.
type sessionStore struct {
	coll *mongo.Collection
}

func (st *sessionStore) Create(ctx context.Context, userID models.ID, ttl time.Duration) (string, error) {
	doc := sessionDoc{
		Token:     uuid.NewString(),
		UserID:    string(userID),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if _, err := st.coll.InsertOne(ctx, doc); err != nil {
		return "", models.Internal("create session", err)
	}
	return doc.Token, nil
}

func (st *sessionStore) Get(ctx context.Context, token string) (models.ID, error) {
	var doc sessionDoc
	err := st.coll.FindOne(ctx, bson.M{
		"_id":       token,
		"expiresAt": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", storage.ErrSessionNotFound()
		}
		return "", models.Internal("get session", err)
	}
	return models.ID(doc.UserID), nil
}

func (st *sessionStore) Destroy(ctx context.Context, token string) error {
	if _, err := st.coll.DeleteOne(ctx, bson.M{"_id": token}); err != nil {
		return models.Internal("destroy session", err)
	}
	return nil
}
