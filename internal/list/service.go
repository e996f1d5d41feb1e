// Package list is the synchronization engine for grocery lists. Every
// operation tries the remote store first and transparently degrades to the
// local fallback store, so a user-visible operation never fails merely
// because the remote store is unreachable. Data integrity toward the remote
// store is traded for availability; there is no background reconciliation,
// the local copy may lag until the next successful remote write.
package list

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"groceryhub/internal/model"
)

const DefaultListName = "Default Grocery List"

type logger interface {
	Debug(v ...any)
	Info(v ...any)
	Error(v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// Identity is the acting user as seen by the session layer: at minimum an
// opaque ID and an email.
type Identity struct {
	ID    string
	Email string
}

// Notifier receives every recorded activity after it is committed. Delivery
// is best effort; implementations must not fail the recording operation.
type Notifier interface {
	ActivityRecorded(ctx context.Context, l model.GroceryList, a model.ListActivity)
}

type Service struct {
	Remote   Store
	Local    Store
	Notifier Notifier
	Logger   logger
}

// useLocal reports whether an operation should be served from the local
// store only: offline identities never touch the remote store, and a list
// already present locally stays local.
func (s *Service) useLocal(ctx context.Context, listID string, userID string) bool {
	if model.IsOfflineUser(userID) {
		return true
	}
	if listID != "" {
		if _, err := s.Local.ListFindOne(ctx, listID); err == nil {
			return true
		}
	}
	return false
}

func (s *Service) GetUserLists(ctx context.Context, userID string) ([]model.GroceryList, error) {
	local, err := s.Local.ListsFindByUser(ctx, userID)
	if err != nil {
		s.Logger.Errorf("GetUserLists: Error reading local store for UserID: %s, err: %v", userID, err)
		local = nil
	}
	if len(local) > 0 || model.IsOfflineUser(userID) {
		s.Logger.Debugf("GetUserLists: Serving %d list(s) from local store for UserID: %s", len(local), userID)
		return local, nil
	}

	remote, err := s.Remote.ListsFindByUser(ctx, userID)
	if err != nil {
		s.Logger.Warnf("GetUserLists: Remote store unavailable for UserID: %s, falling back to local store, err: %v", userID, err)
		return local, nil
	}
	return remote, nil
}

func (s *Service) GetListByID(ctx context.Context, listID string) (model.GroceryList, error) {
	l, err := s.Local.ListFindOne(ctx, listID)
	if err == nil {
		s.Logger.Debugf("GetListByID: Serving ListID: %s from local store", listID)
		return l, nil
	}
	if !errors.Is(err, ErrListNotFound) {
		s.Logger.Errorf("GetListByID: Error reading local store for ListID: %s, err: %v", listID, err)
	}

	l, err = s.Remote.ListFindOne(ctx, listID)
	if err != nil {
		if errors.Is(err, ErrListNotFound) {
			return model.GroceryList{}, err
		}
		s.Logger.Warnf("GetListByID: Remote store unavailable for ListID: %s, err: %v", listID, err)
		return model.GroceryList{}, errors.Wrapf(ErrListNotFound, "ListID: %s (remote store unavailable)", listID)
	}
	return l, nil
}

func (s *Service) CreateList(ctx context.Context, userID string, name string) (model.GroceryList, error) {
	if name == "" {
		name = "My Grocery List"
	}
	l := model.GroceryList{
		ID:                   uuid.NewString(),
		Name:                 name,
		CreatedBy:            userID,
		CreatedAt:            time.Now(),
		Items:                []model.GroceryListItem{},
		Collaborators:        []string{},
		CollaborationDetails: []model.Collaborator{},
		Activities:           []model.ListActivity{},
	}

	if s.useLocal(ctx, "", userID) {
		if err := s.Local.ListInsert(ctx, l); err != nil {
			return model.GroceryList{}, errors.Wrapf(err, "error creating list locally for UserID: %s", userID)
		}
		return l, nil
	}

	if err := s.Remote.ListInsert(ctx, l); err != nil {
		s.Logger.Warnf("CreateList: Remote insert failed for UserID: %s, falling back to local store, err: %v", userID, err)
		if err := s.Local.ListInsert(ctx, l); err != nil {
			return model.GroceryList{}, errors.Wrapf(err, "error creating list for UserID: %s, both stores failed", userID)
		}
	}
	return l, nil
}

// GetOrCreateDefaultList returns the caller's first list, creating one when
// none exists. When creation fails in both stores it synthesizes an
// ephemeral in-memory list so the caller always receives a usable list; the
// Ephemeral flag marks that it was never persisted.
func (s *Service) GetOrCreateDefaultList(ctx context.Context, userID string) model.GroceryList {
	ls, err := s.GetUserLists(ctx, userID)
	if err == nil && len(ls) > 0 {
		return ls[0]
	}
	if err != nil {
		s.Logger.Errorf("GetOrCreateDefaultList: Error getting lists for UserID: %s, err: %v", userID, err)
	}

	l, err := s.CreateList(ctx, userID, DefaultListName)
	if err != nil {
		s.Logger.Errorf("GetOrCreateDefaultList: Error creating default list for UserID: %s, serving ephemeral list, err: %v", userID, err)
		return model.GroceryList{
			ID:        uuid.NewString(),
			Name:      DefaultListName,
			CreatedBy: userID,
			CreatedAt: time.Now(),
			Ephemeral: true,
		}
	}
	return l
}

// GetUserProducts returns the user's product history, the denormalized cache
// fed by AddProductToList. Offline identities read the local reconstruction;
// a remote failure degrades to it.
func (s *Service) GetUserProducts(ctx context.Context, userID string) ([]model.Product, error) {
	if model.IsOfflineUser(userID) {
		return s.Local.ProductCacheFindByUser(ctx, userID)
	}
	ps, err := s.Remote.ProductCacheFindByUser(ctx, userID)
	if err != nil {
		s.Logger.Warnf("GetUserProducts: Remote store unavailable for UserID: %s, falling back to local store, err: %v", userID, err)
		return s.Local.ProductCacheFindByUser(ctx, userID)
	}
	return ps, nil
}

type AddResult struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	List    *model.GroceryList `json:"list,omitempty"`
}

// AddProductToList puts quantity units of p on the list. Adding a product
// already present increments the existing item's quantity instead of
// duplicating the row.
func (s *Service) AddProductToList(ctx context.Context, listID string, actor Identity, p model.Product, quantity int) AddResult {
	if quantity < 1 {
		return AddResult{Message: "quantity must be at least 1"}
	}
	p = p.Normalized()

	if s.useLocal(ctx, listID, actor.ID) {
		return s.addProductLocal(ctx, listID, actor, p, quantity)
	}

	l, err := s.Remote.ListFindOne(ctx, listID)
	if err != nil {
		if errors.Is(err, ErrListNotFound) {
			return AddResult{Message: "Grocery list not found"}
		}
		s.Logger.Warnf("AddProductToList: Remote store unavailable for ListID: %s, falling back to local store, err: %v", listID, err)
		return s.addProductLocal(ctx, listID, actor, p, quantity)
	}

	// Secondary write of the denormalized product cache row; not critical
	// for the list itself.
	if err := s.Remote.ProductCacheUpsert(ctx, actor.ID, p); err != nil {
		s.Logger.Errorf("AddProductToList: Error upserting product cache for UserID: %s, ProductID: %s, err: %v",
			actor.ID, p.ID, err)
	}

	increment := l.ItemByProductID(p.ID) != nil
	item := l.AddProduct(uuid.NewString(), actor.ID, p, quantity, time.Now())
	if increment {
		_, err = s.Remote.ItemQuantityAdd(ctx, listID, p.ID, quantity)
	} else {
		err = s.Remote.ItemInsert(ctx, listID, item)
	}
	if err != nil {
		s.Logger.Warnf("AddProductToList: Remote write failed for ListID: %s, ProductID: %s, falling back to local store, err: %v",
			listID, p.ID, err)
		return s.addProductLocal(ctx, listID, actor, p, quantity)
	}

	s.RecordListActivity(ctx, listID, actor, model.ListActivity{
		Action:   model.ActivityAdded,
		ItemName: p.Name,
		ItemID:   item.ID,
	})

	updated, err := s.Remote.ListFindOne(ctx, listID)
	if err != nil {
		s.Logger.Errorf("AddProductToList: Error re-reading ListID: %s after add, err: %v", listID, err)
		return AddResult{Success: true}
	}
	return AddResult{Success: true, List: &updated}
}

// addProductLocal performs the equivalent mutation against the local
// fallback store. When the list is missing there too, the operation fails
// with a user-facing message rather than an error.
func (s *Service) addProductLocal(ctx context.Context, listID string, actor Identity, p model.Product, quantity int) AddResult {
	l, err := s.Local.ListFindOne(ctx, listID)
	if err != nil {
		if errors.Is(err, ErrListNotFound) {
			return AddResult{Message: "Grocery list not found"}
		}
		s.Logger.Errorf("addProductLocal: Error reading local store for ListID: %s, err: %v", listID, err)
		return AddResult{Message: "Failed to add product to list"}
	}

	increment := l.ItemByProductID(p.ID) != nil
	item := l.AddProduct(uuid.NewString(), actor.ID, p, quantity, time.Now())
	if increment {
		if _, err = s.Local.ItemQuantityAdd(ctx, listID, p.ID, quantity); err != nil {
			s.Logger.Errorf("addProductLocal: Error incrementing quantity for ListID: %s, ProductID: %s, err: %v", listID, p.ID, err)
			return AddResult{Message: "Failed to add product to list"}
		}
	} else if err = s.Local.ItemInsert(ctx, listID, item); err != nil {
		s.Logger.Errorf("addProductLocal: Error inserting item for ListID: %s, ProductID: %s, err: %v", listID, p.ID, err)
		return AddResult{Message: "Failed to add product to list"}
	}

	if err = s.Local.ActivityAppend(ctx, listID, s.newActivity(listID, actor, model.ListActivity{
		Action:   model.ActivityAdded,
		ItemName: p.Name,
		ItemID:   item.ID,
	})); err != nil {
		s.Logger.Errorf("addProductLocal: Error appending activity for ListID: %s, err: %v", listID, err)
	}

	updated, err := s.Local.ListFindOne(ctx, listID)
	if err != nil {
		return AddResult{Success: true}
	}
	return AddResult{Success: true, List: &updated}
}

// UpdateItemQuantity sets the quantity of an existing item. Requires write
// permission.
func (s *Service) UpdateItemQuantity(ctx context.Context, listID string, actor Identity, itemID string, quantity int) bool {
	if quantity < 1 {
		return false
	}
	return s.mutateItem(ctx, listID, actor, itemID, model.ActivityUpdated, func(it *model.GroceryListItem) {
		it.Quantity = quantity
	})
}

// SetItemChecked checks or unchecks an item. Requires write permission.
func (s *Service) SetItemChecked(ctx context.Context, listID string, actor Identity, itemID string, checked bool) bool {
	action := model.ActivityChecked
	if !checked {
		action = model.ActivityUnchecked
	}
	return s.mutateItem(ctx, listID, actor, itemID, action, func(it *model.GroceryListItem) {
		it.Checked = checked
	})
}

func (s *Service) mutateItem(ctx context.Context, listID string, actor Identity, itemID string,
	action model.ActivityAction, mutate func(it *model.GroceryListItem)) bool {

	if !s.CheckListPermission(ctx, listID, actor, model.PermissionWrite) {
		s.Logger.Debugf("mutateItem: Permission denied for UserID: %s on ListID: %s", actor.ID, listID)
		return false
	}
	l, err := s.GetListByID(ctx, listID)
	if err != nil {
		s.Logger.Debugf("mutateItem: ListID: %s not found, err: %v", listID, err)
		return false
	}
	it := l.Item(itemID)
	if it == nil {
		s.Logger.Debugf("mutateItem: ItemID: %s not found on ListID: %s", itemID, listID)
		return false
	}
	mutate(it)

	update := func(st Store) error { return st.ItemUpdate(ctx, listID, *it) }
	if s.useLocal(ctx, listID, actor.ID) {
		err = update(s.Local)
	} else if err = update(s.Remote); err != nil && !errors.Is(err, ErrItemNotFound) {
		s.Logger.Warnf("mutateItem: Remote update failed for ItemID: %s on ListID: %s, falling back to local store, err: %v",
			itemID, listID, err)
		err = update(s.Local)
	}
	if err != nil {
		s.Logger.Errorf("mutateItem: Error updating ItemID: %s on ListID: %s, err: %v", itemID, listID, err)
		return false
	}

	s.RecordListActivity(ctx, listID, actor, model.ListActivity{
		Action:   action,
		ItemName: it.ProductData.Name,
		ItemID:   it.ID,
	})
	return true
}

// RemoveItemFromList removes an item. Requires write permission.
func (s *Service) RemoveItemFromList(ctx context.Context, listID string, actor Identity, itemID string) bool {
	if !s.CheckListPermission(ctx, listID, actor, model.PermissionWrite) {
		s.Logger.Debugf("RemoveItemFromList: Permission denied for UserID: %s on ListID: %s", actor.ID, listID)
		return false
	}
	l, err := s.GetListByID(ctx, listID)
	if err != nil {
		return false
	}
	it := l.Item(itemID)
	if it == nil {
		return false
	}

	remove := func(st Store) error { return st.ItemRemove(ctx, listID, itemID) }
	if s.useLocal(ctx, listID, actor.ID) {
		err = remove(s.Local)
	} else if err = remove(s.Remote); err != nil && !errors.Is(err, ErrItemNotFound) {
		s.Logger.Warnf("RemoveItemFromList: Remote remove failed for ItemID: %s on ListID: %s, falling back to local store, err: %v",
			itemID, listID, err)
		err = remove(s.Local)
	}
	if err != nil {
		s.Logger.Errorf("RemoveItemFromList: Error removing ItemID: %s from ListID: %s, err: %v", itemID, listID, err)
		return false
	}

	s.RecordListActivity(ctx, listID, actor, model.ListActivity{
		Action:   model.ActivityRemoved,
		ItemName: it.ProductData.Name,
		ItemID:   it.ID,
	})
	return true
}

func (s *Service) newActivity(listID string, actor Identity, a model.ListActivity) model.ListActivity {
	a.ID = uuid.NewString()
	a.ListID = listID
	a.UserID = actor.ID
	a.UserEmail = actor.Email
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	return a
}
