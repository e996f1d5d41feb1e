package model

import (
	"strings"
	"time"
)

type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionAdmin Permission = "admin"
)

func (p Permission) Valid() bool {
	return p == PermissionRead || p == PermissionWrite || p == PermissionAdmin
}

func (p Permission) rank() int {
	switch p {
	case PermissionRead:
		return 1
	case PermissionWrite:
		return 2
	case PermissionAdmin:
		return 3
	}
	return 0
}

// Allows reports whether a holder of p passes a check for required.
// The hierarchy is linear: admin ⊇ write ⊇ read.
func (p Permission) Allows(required Permission) bool {
	return p.rank() >= required.rank()
}

type CollaboratorStatus string

const (
	CollaboratorPending CollaboratorStatus = "pending"
	CollaboratorActive  CollaboratorStatus = "active"
)

type Collaborator struct {
	Email        string             `bson:"email" json:"email"`
	Permissions  Permission         `bson:"permissions" json:"permissions"`
	Status       CollaboratorStatus `bson:"status" json:"status"`
	AddedAt      time.Time          `bson:"added_at" json:"added_at"`
	LastActivity *time.Time         `bson:"last_activity,omitempty" json:"last_activity,omitempty"`
}

type ActivityAction string

const (
	ActivityAdded     ActivityAction = "added"
	ActivityRemoved   ActivityAction = "removed"
	ActivityUpdated   ActivityAction = "updated"
	ActivityChecked   ActivityAction = "checked"
	ActivityUnchecked ActivityAction = "unchecked"
)

type ListActivity struct {
	ID        string         `bson:"activity_id" json:"id"`
	ListID    string         `bson:"list_id" json:"list_id"`
	UserID    string         `bson:"user_id" json:"user_id"`
	UserEmail string         `bson:"user_email" json:"user_email"`
	Action    ActivityAction `bson:"action" json:"action"`
	ItemName  string         `bson:"item_name,omitempty" json:"item_name,omitempty"`
	ItemID    string         `bson:"item_id,omitempty" json:"item_id,omitempty"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
}

// ActivityLogCap bounds the activity log kept on a list. Oldest entries are
// evicted first.
const ActivityLogCap = 50

type GroceryListItem struct {
	ID          string      `bson:"_id" json:"id"`
	ProductID   string      `bson:"product_id" json:"product_id"`
	Quantity    int         `bson:"quantity" json:"quantity"`
	AddedBy     string      `bson:"added_by" json:"added_by"`
	AddedAt     time.Time   `bson:"added_at" json:"added_at"`
	Checked     bool        `bson:"checked" json:"checked"`
	ProductData ProductData `bson:"product_data" json:"product_data"`
}

// GroceryList is the aggregate the sync engine works on. Items live in their
// own collection remotely and are assembled by the store adapter; locally the
// whole aggregate is persisted as one JSON object.
//
// Collaborators is the legacy flat set of emails kept as a backward-compat
// mirror of CollaborationDetails.
type GroceryList struct {
	ID                   string            `bson:"_id" json:"id"`
	Name                 string            `bson:"name" json:"name"`
	CreatedBy            string            `bson:"created_by" json:"created_by"`
	CreatedAt            time.Time         `bson:"created_at" json:"created_at"`
	Items                []GroceryListItem `bson:"-" json:"items"`
	Collaborators        []string          `bson:"collaborators" json:"collaborators"`
	CollaborationDetails []Collaborator    `bson:"collaboration_details" json:"collaboration_details"`
	Activities           []ListActivity    `bson:"activities" json:"activities"`
	Ephemeral            bool              `bson:"-" json:"ephemeral,omitempty"`
}

func (l *GroceryList) Item(itemID string) *GroceryListItem {
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			return &l.Items[i]
		}
	}
	return nil
}

func (l *GroceryList) ItemByProductID(productID string) *GroceryListItem {
	for i := range l.Items {
		if l.Items[i].ProductID == productID {
			return &l.Items[i]
		}
	}
	return nil
}

// AddProduct adds p to the list, or increments the quantity of the existing
// item with the same product ID instead of duplicating the row. itemID is
// used only when a new item is created.
func (l *GroceryList) AddProduct(itemID string, userID string, p Product, quantity int, now time.Time) GroceryListItem {
	if existing := l.ItemByProductID(p.ID); existing != nil {
		existing.Quantity += quantity
		return *existing
	}
	it := GroceryListItem{
		ID:          itemID,
		ProductID:   p.ID,
		Quantity:    quantity,
		AddedBy:     userID,
		AddedAt:     now,
		Checked:     false,
		ProductData: p.Snapshot(),
	}
	l.Items = append(l.Items, it)
	return it
}

func (l *GroceryList) RemoveItem(itemID string) bool {
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Collaborator looks up a collaboration detail by case-insensitive email.
func (l *GroceryList) Collaborator(email string) *Collaborator {
	for i := range l.CollaborationDetails {
		if strings.EqualFold(l.CollaborationDetails[i].Email, email) {
			return &l.CollaborationDetails[i]
		}
	}
	return nil
}

// UpsertCollaborator invites email with the given permission. Re-inviting an
// existing collaborator overwrites their permission and AddedAt and resets
// their status to pending. The legacy flat set is kept in sync.
func (l *GroceryList) UpsertCollaborator(email string, permission Permission, now time.Time) Collaborator {
	email = strings.ToLower(strings.TrimSpace(email))
	c := Collaborator{
		Email:       email,
		Permissions: permission,
		Status:      CollaboratorPending,
		AddedAt:     now,
	}
	if existing := l.Collaborator(email); existing != nil {
		*existing = c
	} else {
		l.CollaborationDetails = append(l.CollaborationDetails, c)
	}
	l.reconcileCollaborators()
	return c
}

// EnrollCollaborator adds email directly as an active collaborator, skipping
// the invite/accept flow. Used for join-by-link, where the link itself is the
// invitation.
func (l *GroceryList) EnrollCollaborator(email string, permission Permission, now time.Time) Collaborator {
	c := l.UpsertCollaborator(email, permission, now)
	l.Collaborator(c.Email).Status = CollaboratorActive
	c.Status = CollaboratorActive
	return c
}

func (l *GroceryList) RemoveCollaborator(email string) bool {
	removed := false
	for i := range l.CollaborationDetails {
		if strings.EqualFold(l.CollaborationDetails[i].Email, email) {
			l.CollaborationDetails = append(l.CollaborationDetails[:i], l.CollaborationDetails[i+1:]...)
			removed = true
			break
		}
	}
	for i := range l.Collaborators {
		if strings.EqualFold(l.Collaborators[i], email) {
			l.Collaborators = append(l.Collaborators[:i], l.Collaborators[i+1:]...)
			removed = true
			break
		}
	}
	return removed
}

// reconcileCollaborators restores the mirror invariant between the flat set
// and the detail set. Emails present only in the legacy flat set get a detail
// entry matching the read/write grant that set has always implied.
func (l *GroceryList) reconcileCollaborators() {
	seen := make(map[string]bool, len(l.Collaborators))
	flat := l.Collaborators[:0]
	for _, email := range l.Collaborators {
		e := strings.ToLower(strings.TrimSpace(email))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		flat = append(flat, e)
	}
	l.Collaborators = flat
	for _, c := range l.CollaborationDetails {
		if !seen[strings.ToLower(c.Email)] {
			seen[strings.ToLower(c.Email)] = true
			l.Collaborators = append(l.Collaborators, strings.ToLower(c.Email))
		}
	}
	for _, email := range l.Collaborators {
		if l.Collaborator(email) == nil {
			l.CollaborationDetails = append(l.CollaborationDetails, Collaborator{
				Email:       email,
				Permissions: PermissionWrite,
				Status:      CollaboratorActive,
				AddedAt:     time.Now(),
			})
		}
	}
}

// PermissionFor evaluates whether the identity (userID, email) passes a check
// for required on this list. The owner always passes. A pending collaborator
// is restricted to read regardless of tier. Identities found only in the
// legacy flat set get read/write but never admin.
func (l *GroceryList) PermissionFor(userID string, email string, required Permission) bool {
	if userID != "" && userID == l.CreatedBy {
		return true
	}
	if email == "" {
		return false
	}
	if c := l.Collaborator(email); c != nil {
		if c.Status == CollaboratorPending {
			return required == PermissionRead
		}
		return c.Permissions.Allows(required)
	}
	for _, e := range l.Collaborators {
		if strings.EqualFold(e, email) {
			return required != PermissionAdmin
		}
	}
	return false
}

// AppendActivity appends a to the activity log, evicting the oldest entries
// beyond ActivityLogCap.
func (l *GroceryList) AppendActivity(a ListActivity) {
	l.Activities = append(l.Activities, a)
	if len(l.Activities) > ActivityLogCap {
		l.Activities = l.Activities[len(l.Activities)-ActivityLogCap:]
	}
}
