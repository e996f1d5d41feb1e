package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"groceryhub/internal/list"
	"groceryhub/internal/model"
)

// itemDoc is the grocery_items document. Items live in their own collection;
// the list aggregate is assembled on read.
type itemDoc struct {
	ListID string `bson:"list_id"`
	model.GroceryListItem `bson:",inline"`
}

func (db Database) ListsFindByUser(ctx context.Context, userID string) ([]model.GroceryList, error) {
	var ls []model.GroceryList
	cur, err := db.Collection(CollectionLists).Find(ctx, bson.M{"created_by": userID})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find GroceryLists for UserID: %s", userID)
	}
	if err = cur.All(ctx, &ls); err != nil {
		return nil, errors.Wrapf(err, "error getting GroceryLists from cursor for UserID: %s", userID)
	}
	if len(ls) == 0 {
		return ls, nil
	}

	listIDs := make([]string, 0, len(ls))
	for _, l := range ls {
		listIDs = append(listIDs, l.ID)
	}
	var items []itemDoc
	cur, err = db.Collection(CollectionItems).Find(ctx, bson.M{"list_id": bson.M{"$in": listIDs}})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find items for ListIDs: %v", listIDs)
	}
	if err = cur.All(ctx, &items); err != nil {
		return nil, errors.Wrapf(err, "error getting items from cursor for ListIDs: %v", listIDs)
	}
	byList := make(map[string][]model.GroceryListItem, len(ls))
	for _, it := range items {
		byList[it.ListID] = append(byList[it.ListID], it.GroceryListItem)
	}
	for i := range ls {
		ls[i].Items = byList[ls[i].ID]
	}
	return ls, nil
}

func (db Database) ListFindOne(ctx context.Context, listID string) (model.GroceryList, error) {
	var l model.GroceryList
	err := db.Collection(CollectionLists).FindOne(ctx, bson.M{"_id": listID}).Decode(&l)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return l, errors.Wrapf(list.ErrListNotFound, "ListID: %s", listID)
		}
		return l, errors.Wrapf(err, "error finding GroceryList with ID: %s", listID)
	}

	var items []itemDoc
	cur, err := db.Collection(CollectionItems).Find(ctx, bson.M{"list_id": listID})
	if err != nil {
		return l, errors.Wrapf(err, "error getting cursor to find items for ListID: %s", listID)
	}
	if err = cur.All(ctx, &items); err != nil {
		return l, errors.Wrapf(err, "error getting items from cursor for ListID: %s", listID)
	}
	for _, it := range items {
		l.Items = append(l.Items, it.GroceryListItem)
	}
	return l, nil
}

func (db Database) ListInsert(ctx context.Context, l model.GroceryList) error {
	if l.Collaborators == nil {
		l.Collaborators = []string{}
	}
	if l.CollaborationDetails == nil {
		l.CollaborationDetails = []model.Collaborator{}
	}
	if l.Activities == nil {
		l.Activities = []model.ListActivity{}
	}
	_, err := db.Collection(CollectionLists).InsertOne(ctx, l)
	if err != nil {
		return errors.Wrapf(err, "error inserting GroceryList: %+v", l)
	}
	for _, it := range l.Items {
		if err := db.ItemInsert(ctx, l.ID, it); err != nil {
			return err
		}
	}
	return nil
}

func (db Database) ItemInsert(ctx context.Context, listID string, it model.GroceryListItem) error {
	_, err := db.Collection(CollectionItems).InsertOne(ctx, itemDoc{ListID: listID, GroceryListItem: it})
	return errors.Wrapf(err, "error inserting item: %+v into ListID: %s", it, listID)
}

func (db Database) ItemQuantityAdd(ctx context.Context, listID string, productID string, quantity int) (model.GroceryListItem, error) {
	var updated itemDoc
	err := db.Collection(CollectionItems).FindOneAndUpdate(
		ctx,
		bson.M{"list_id": listID, "product_id": productID},
		bson.M{"$inc": bson.M{"quantity": quantity}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.GroceryListItem{}, errors.Wrapf(list.ErrItemNotFound, "ListID: %s, ProductID: %s", listID, productID)
		}
		return model.GroceryListItem{}, errors.Wrapf(err,
			"error incrementing item quantity, ListID: %s, ProductID: %s, quantity: %d", listID, productID, quantity)
	}
	return updated.GroceryListItem, nil
}

func (db Database) ItemUpdate(ctx context.Context, listID string, it model.GroceryListItem) error {
	res, err := db.Collection(CollectionItems).UpdateOne(
		ctx,
		bson.M{"_id": it.ID, "list_id": listID},
		bson.M{"$set": bson.M{
			"quantity": it.Quantity,
			"checked":  it.Checked,
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating item with ID: %s on ListID: %s", it.ID, listID)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(list.ErrItemNotFound, "ItemID: %s, ListID: %s", it.ID, listID)
	}
	return nil
}

func (db Database) ItemRemove(ctx context.Context, listID string, itemID string) error {
	res, err := db.Collection(CollectionItems).DeleteOne(ctx, bson.M{"_id": itemID, "list_id": listID})
	if err != nil {
		return errors.Wrapf(err, "error removing item with ID: %s from ListID: %s", itemID, listID)
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(list.ErrItemNotFound, "ItemID: %s, ListID: %s", itemID, listID)
	}
	return nil
}

func (db Database) CollaboratorsUpdate(ctx context.Context, l model.GroceryList) error {
	res, err := db.Collection(CollectionLists).UpdateOne(
		ctx,
		bson.M{"_id": l.ID},
		bson.M{"$set": bson.M{
			"collaborators":         l.Collaborators,
			"collaboration_details": l.CollaborationDetails,
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating collaborators on GroceryList with ID: %s", l.ID)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(list.ErrListNotFound, "ListID: %s", l.ID)
	}
	return nil
}

func (db Database) ActivityAppend(ctx context.Context, listID string, a model.ListActivity) error {
	res, err := db.Collection(CollectionLists).UpdateOne(
		ctx,
		bson.M{"_id": listID},
		bson.M{"$push": bson.M{
			"activities": bson.M{
				"$each":  []model.ListActivity{a},
				"$slice": -model.ActivityLogCap,
			},
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error appending activity to GroceryList with ID: %s", listID)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(list.ErrListNotFound, "ListID: %s", listID)
	}
	return nil
}
