package list

import (
	"context"

	"github.com/pkg/errors"

	"groceryhub/internal/model"
)

var ErrListNotFound = errors.New("grocery list not found")
var ErrItemNotFound = errors.New("list item not found")

// Store is the storage contract the sync engine depends on. It has two
// implementations, the remote mongo adapter and the local fallback store; the
// engine wraps them with a remote-first, degrade-to-local policy so the
// fallback decision lives in exactly one place.
type Store interface {
	ListsFindByUser(ctx context.Context, userID string) ([]model.GroceryList, error)
	ListFindOne(ctx context.Context, listID string) (model.GroceryList, error)
	ListInsert(ctx context.Context, l model.GroceryList) error

	ItemInsert(ctx context.Context, listID string, it model.GroceryListItem) error
	// ItemQuantityAdd atomically increments the quantity of the item with the
	// given product ID, returning ErrItemNotFound when the list has no such
	// item yet.
	ItemQuantityAdd(ctx context.Context, listID string, productID string, quantity int) (model.GroceryListItem, error)
	ItemUpdate(ctx context.Context, listID string, it model.GroceryListItem) error
	ItemRemove(ctx context.Context, listID string, itemID string) error

	// CollaboratorsUpdate persists both collaborator representations of l
	// (the flat email set and the detail set) in a single update.
	CollaboratorsUpdate(ctx context.Context, l model.GroceryList) error
	// ActivityAppend appends a to the list's activity log, truncated to the
	// most recent model.ActivityLogCap entries.
	ActivityAppend(ctx context.Context, listID string, a model.ListActivity) error

	// ProductCacheUpsert overwrites the denormalized product row keyed by
	// (user, product).
	ProductCacheUpsert(ctx context.Context, userID string, p model.Product) error
	// ProductCacheFindByUser returns every product the user has put on a list,
	// deduplicated by product ID.
	ProductCacheFindByUser(ctx context.Context, userID string) ([]model.Product, error)
}
