package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"groceryhub/internal/model"
)

// UserProduct is the denormalized per-user product cache row. It duplicates
// catalog fields so list rendering never has to call the upstreams again.
type UserProduct struct {
	UserID        string             `bson:"user_id"`
	model.Product `bson:",inline"`
	UpdatedAt     primitive.DateTime `bson:"updated_at"`
}

func (db Database) ProductCacheUpsert(ctx context.Context, userID string, p model.Product) error {
	up := UserProduct{
		UserID:    userID,
		Product:   p,
		UpdatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	_, err := db.Collection(CollectionUserProducts).ReplaceOne(
		ctx,
		bson.M{"user_id": userID, "product_id": p.ID},
		up,
		options.Replace().SetUpsert(true),
	)
	return errors.Wrapf(err, "error upserting UserProduct for UserID: %s, ProductID: %s", userID, p.ID)
}

func (db Database) ProductCacheFindByUser(ctx context.Context, userID string) ([]model.Product, error) {
	var ups []UserProduct
	cur, err := db.Collection(CollectionUserProducts).Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find UserProducts for UserID: %s", userID)
	}
	if err = cur.All(ctx, &ups); err != nil {
		return nil, errors.Wrapf(err, "error getting UserProducts from cursor for UserID: %s", userID)
	}
	ps := make([]model.Product, 0, len(ups))
	for _, up := range ups {
		ps = append(ps, up.Product)
	}
	return ps, nil
}
