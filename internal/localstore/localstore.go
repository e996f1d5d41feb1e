// Package localstore is the durable local fallback used when the remote
// store is unreachable or the caller is an anonymous/offline identity. The
// layout mirrors the client-side original: one namespaced JSON array of
// grocery lists, scanned and rewritten wholesale on every operation. At this
// scale the full-collection touch is an accepted cost, not a contract
// violation.
package localstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"groceryhub/internal/list"
	"groceryhub/internal/model"
)

type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) load() ([]model.GroceryList, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "error reading local store file: %s", s.path)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var ls []model.GroceryList
	if err = json.Unmarshal(data, &ls); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling local store file: %s", s.path)
	}
	return ls, nil
}

func (s *Store) save(ls []model.GroceryList) error {
	if ls == nil {
		ls = []model.GroceryList{}
	}
	data, err := json.MarshalIndent(ls, "", "  ")
	if err != nil {
		return errors.Wrap(err, "error marshalling local store lists")
	}
	tmp := s.path + ".tmp"
	if err = os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrapf(err, "error creating local store directory for: %s", s.path)
	}
	if err = os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "error writing local store file: %s", tmp)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		return errors.Wrapf(err, "error replacing local store file: %s", s.path)
	}
	return nil
}

// mutate runs fn against the loaded collection and persists the result when
// fn succeeds.
func (s *Store) mutate(fn func(ls []model.GroceryList) ([]model.GroceryList, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, err := s.load()
	if err != nil {
		return err
	}
	ls, err = fn(ls)
	if err != nil {
		return err
	}
	return s.save(ls)
}

func (s *Store) ListsFindByUser(_ context.Context, userID string) ([]model.GroceryList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, err := s.load()
	if err != nil {
		return nil, err
	}
	var userLists []model.GroceryList
	for _, l := range ls {
		if l.CreatedBy == userID {
			userLists = append(userLists, l)
		}
	}
	return userLists, nil
}

func (s *Store) ListFindOne(_ context.Context, listID string) (model.GroceryList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, err := s.load()
	if err != nil {
		return model.GroceryList{}, err
	}
	for _, l := range ls {
		if l.ID == listID {
			return l, nil
		}
	}
	return model.GroceryList{}, errors.Wrapf(list.ErrListNotFound, "ListID: %s", listID)
}

func (s *Store) ListInsert(_ context.Context, l model.GroceryList) error {
	return s.mutate(func(ls []model.GroceryList) ([]model.GroceryList, error) {
		for _, existing := range ls {
			if existing.ID == l.ID {
				return nil, errors.Errorf("GroceryList with ID: %s already exists in local store", l.ID)
			}
		}
		return append(ls, l), nil
	})
}

func (s *Store) ItemInsert(_ context.Context, listID string, it model.GroceryListItem) error {
	return s.mutate(func(ls []model.GroceryList) ([]model.GroceryList, error) {
		l := findList(ls, listID)
		if l == nil {
			return nil, errors.Wrapf(list.ErrListNotFound, "ListID: %s", listID)
		}
		l.Items = append(l.Items, it)
		return ls, nil
	})
}

func (s *Store) ItemQuantityAdd(_ context.Context, listID string, productID string, quantity int) (model.GroceryListItem, error) {
	var updated model.GroceryListItem
	err := s.mutate(func(ls []model.GroceryList) ([]model.GroceryList, error) {
		l := findList(ls, listID)
		if l == nil {
			return nil, errors.Wrapf(list.ErrListNotFound, "ListID: %s", listID)
		}
		it := l.ItemByProductID(productID)
		if it == nil {
			return nil, errors.Wrapf(list.ErrItemNotFound, "ListID: %s, ProductID: %s", listID, productID)
		}
		it.Quantity += quantity
		updated = *it
		return ls, nil
	})
	return updated, err
}

func (s *Store) ItemUpdate(_ context.Context, listID string, it model.GroceryListItem) error {
	return s.mutate(func(ls []model.GroceryList) ([]model.GroceryList, error) {
		l := findList(ls, listID)
		if l == nil {
			return nil, errors.Wrapf(list.ErrListNotFound, "ListID: %s", listID)
		}
		existing := l.Item(it.ID)
		if existing == nil {
			return nil, errors.Wrapf(list.ErrItemNotFound, "ItemID: %s, ListID: %s", it.ID, listID)
		}
		existing.Quantity = it.Quantity
		existing.Checked = it.Checked
		return ls, nil
	})
}

func (s *Store) ItemRemove(_ context.Context, listID string, itemID string) error {
	return s.mutate(func(ls []model.GroceryList) ([]model.GroceryList, error) {
		l := findList(ls, listID)
		if l == nil {
			return nil, errors.Wrapf(list.ErrListNotFound, "ListID: %s", listID)
		}
		if !l.RemoveItem(itemID) {
			return nil, errors.Wrapf(list.ErrItemNotFound, "ItemID: %s, ListID: %s", itemID, listID)
		}
		return ls, nil
	})
}

func (s *Store) CollaboratorsUpdate(_ context.Context, updated model.GroceryList) error {
	return s.mutate(func(ls []model.GroceryList) ([]model.GroceryList, error) {
		l := findList(ls, updated.ID)
		if l == nil {
			return nil, errors.Wrapf(list.ErrListNotFound, "ListID: %s", updated.ID)
		}
		l.Collaborators = updated.Collaborators
		l.CollaborationDetails = updated.CollaborationDetails
		return ls, nil
	})
}

func (s *Store) ActivityAppend(_ context.Context, listID string, a model.ListActivity) error {
	return s.mutate(func(ls []model.GroceryList) ([]model.GroceryList, error) {
		l := findList(ls, listID)
		if l == nil {
			return nil, errors.Wrapf(list.ErrListNotFound, "ListID: %s", listID)
		}
		l.AppendActivity(a)
		return ls, nil
	})
}

// ProductCacheUpsert is a no-op locally: the local layout persists lists
// only, and each item already carries its denormalized product snapshot.
func (s *Store) ProductCacheUpsert(_ context.Context, _ string, _ model.Product) error {
	return nil
}

// ProductCacheFindByUser reassembles the user's product history from the item
// snapshots on their lists, since the local layout has no separate cache.
func (s *Store) ProductCacheFindByUser(_ context.Context, userID string) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, err := s.load()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ps []model.Product
	for _, l := range ls {
		if l.CreatedBy != userID {
			continue
		}
		for _, it := range l.Items {
			if seen[it.ProductID] {
				continue
			}
			seen[it.ProductID] = true
			pd := it.ProductData
			ps = append(ps, model.Product{
				ID:       pd.ID,
				Name:     pd.Name,
				Brand:    pd.Brand,
				Price:    pd.Price,
				Category: pd.Category,
				Store:    pd.Store,
				ImageURL: pd.ImageURL,
			})
		}
	}
	return ps, nil
}

func findList(ls []model.GroceryList, listID string) *model.GroceryList {
	for i := range ls {
		if ls[i].ID == listID {
			return &ls[i]
		}
	}
	return nil
}
