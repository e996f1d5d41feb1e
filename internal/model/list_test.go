package model

import (
	"fmt"
	"testing"
	"time"
)

func TestPermissionAllows(t *testing.T) {
	tests := []struct {
		holder   Permission
		required Permission
		want     bool
	}{
		{PermissionRead, PermissionRead, true},
		{PermissionRead, PermissionWrite, false},
		{PermissionRead, PermissionAdmin, false},
		{PermissionWrite, PermissionRead, true},
		{PermissionWrite, PermissionWrite, true},
		{PermissionWrite, PermissionAdmin, false},
		{PermissionAdmin, PermissionRead, true},
		{PermissionAdmin, PermissionWrite, true},
		{PermissionAdmin, PermissionAdmin, true},
		{Permission("bogus"), PermissionRead, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s allows %s", tt.holder, tt.required), func(t *testing.T) {
			if got := tt.holder.Allows(tt.required); got != tt.want {
				t.Errorf("(%q).Allows(%q) = %v, want %v", tt.holder, tt.required, got, tt.want)
			}
		})
	}
}

func TestPermissionFor(t *testing.T) {
	now := time.Now()
	l := GroceryList{
		ID:        "l1",
		CreatedBy: "owner-1",
		Collaborators: []string{
			"legacy@example.com",
		},
		CollaborationDetails: []Collaborator{
			{Email: "active@example.com", Permissions: PermissionWrite, Status: CollaboratorActive, AddedAt: now},
			{Email: "pending@example.com", Permissions: PermissionAdmin, Status: CollaboratorPending, AddedAt: now},
		},
	}

	tests := []struct {
		name     string
		userID   string
		email    string
		required Permission
		want     bool
	}{
		{"owner always passes", "owner-1", "", PermissionAdmin, true},
		{"active write passes write", "u2", "active@example.com", PermissionWrite, true},
		{"active write fails admin", "u2", "active@example.com", PermissionAdmin, false},
		{"active collaborator email case-insensitive", "u2", "Active@Example.com", PermissionWrite, true},
		{"pending admin restricted to read", "u3", "pending@example.com", PermissionRead, true},
		{"pending admin cannot write", "u3", "pending@example.com", PermissionWrite, false},
		{"pending admin cannot admin", "u3", "pending@example.com", PermissionAdmin, false},
		{"legacy flat email gets write", "u4", "legacy@example.com", PermissionWrite, true},
		{"legacy flat email never admin", "u4", "legacy@example.com", PermissionAdmin, false},
		{"stranger denied", "u5", "stranger@example.com", PermissionRead, false},
		{"no identity denied", "", "", PermissionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.PermissionFor(tt.userID, tt.email, tt.required); got != tt.want {
				t.Errorf("PermissionFor(%q, %q, %q) = %v, want %v", tt.userID, tt.email, tt.required, got, tt.want)
			}
		})
	}
}

func TestUpsertCollaborator(t *testing.T) {
	now := time.Now()
	var l GroceryList

	c := l.UpsertCollaborator("  Friend@Example.COM ", PermissionRead, now)
	if c.Email != "friend@example.com" {
		t.Errorf("Email = %q, want lowercased and trimmed", c.Email)
	}
	if c.Status != CollaboratorPending {
		t.Errorf("Status = %q, want %q", c.Status, CollaboratorPending)
	}
	if len(l.Collaborators) != 1 || l.Collaborators[0] != "friend@example.com" {
		t.Errorf("flat set not mirrored, got %v", l.Collaborators)
	}

	l.Collaborator("friend@example.com").Status = CollaboratorActive

	later := now.Add(time.Hour)
	c = l.UpsertCollaborator("friend@example.com", PermissionAdmin, later)
	if len(l.CollaborationDetails) != 1 {
		t.Fatalf("re-invite duplicated collaborator, details: %v", l.CollaborationDetails)
	}
	if c.Permissions != PermissionAdmin {
		t.Errorf("Permissions = %q, want overwritten to %q", c.Permissions, PermissionAdmin)
	}
	if c.Status != CollaboratorPending {
		t.Errorf("Status = %q, want reset to %q on re-invite", c.Status, CollaboratorPending)
	}
	if !c.AddedAt.Equal(later) {
		t.Errorf("AddedAt = %v, want overwritten to %v", c.AddedAt, later)
	}
}

func TestEnrollCollaborator(t *testing.T) {
	var l GroceryList
	c := l.EnrollCollaborator("joiner@example.com", PermissionWrite, time.Now())
	if c.Status != CollaboratorActive {
		t.Errorf("Status = %q, want %q", c.Status, CollaboratorActive)
	}
	if got := l.Collaborator("joiner@example.com"); got == nil || got.Status != CollaboratorActive {
		t.Errorf("stored collaborator = %+v, want active", got)
	}
}

func TestRemoveCollaborator(t *testing.T) {
	now := time.Now()
	var l GroceryList
	l.UpsertCollaborator("a@example.com", PermissionWrite, now)
	l.UpsertCollaborator("b@example.com", PermissionRead, now)

	if !l.RemoveCollaborator("A@Example.com") {
		t.Fatal("RemoveCollaborator returned false for existing collaborator")
	}
	if l.Collaborator("a@example.com") != nil {
		t.Error("collaborator detail not removed")
	}
	for _, e := range l.Collaborators {
		if e == "a@example.com" {
			t.Error("flat set entry not removed")
		}
	}
	if l.RemoveCollaborator("a@example.com") {
		t.Error("RemoveCollaborator returned true for already removed collaborator")
	}
}

func TestReconcileFlatOnlyEmail(t *testing.T) {
	l := GroceryList{
		Collaborators: []string{"Flat@Example.com", "flat@example.com"},
	}
	l.UpsertCollaborator("other@example.com", PermissionRead, time.Now())

	var flatCount int
	for _, e := range l.Collaborators {
		if e == "flat@example.com" {
			flatCount++
		}
	}
	if flatCount != 1 {
		t.Errorf("flat set not deduplicated, got %v", l.Collaborators)
	}
	c := l.Collaborator("flat@example.com")
	if c == nil {
		t.Fatal("flat-only email got no detail entry")
	}
	if c.Permissions != PermissionWrite || c.Status != CollaboratorActive {
		t.Errorf("flat-only detail = %+v, want active write", c)
	}
}

func TestAddProductIdempotent(t *testing.T) {
	now := time.Now()
	var l GroceryList
	p := Product{ID: "p1", Name: "Arroz", Price: 950, Store: StoreMaxiPali}

	it := l.AddProduct("item-1", "u1", p, 2, now)
	if it.Quantity != 2 {
		t.Errorf("Quantity = %d, want 2", it.Quantity)
	}

	it = l.AddProduct("item-2", "u1", p, 3, now)
	if len(l.Items) != 1 {
		t.Fatalf("adding same product twice created %d items, want 1", len(l.Items))
	}
	if it.ID != "item-1" {
		t.Errorf("ItemID = %q, want original %q", it.ID, "item-1")
	}
	if it.Quantity != 5 {
		t.Errorf("Quantity = %d, want incremented to 5", it.Quantity)
	}

	other := Product{ID: "p2", Name: "Frijoles", Price: 800, Store: StoreMaxiPali}
	l.AddProduct("item-3", "u1", other, 1, now)
	if len(l.Items) != 2 {
		t.Errorf("adding distinct product gave %d items, want 2", len(l.Items))
	}
}

func TestAppendActivityCap(t *testing.T) {
	var l GroceryList
	for i := 0; i < ActivityLogCap+10; i++ {
		l.AppendActivity(ListActivity{ID: fmt.Sprintf("a%d", i), Action: ActivityAdded})
	}
	if len(l.Activities) != ActivityLogCap {
		t.Fatalf("len(Activities) = %d, want %d", len(l.Activities), ActivityLogCap)
	}
	if got := l.Activities[0].ID; got != "a10" {
		t.Errorf("oldest kept activity = %q, want %q (oldest evicted first)", got, "a10")
	}
	if got := l.Activities[len(l.Activities)-1].ID; got != fmt.Sprintf("a%d", ActivityLogCap+9) {
		t.Errorf("newest activity = %q, want %q", got, fmt.Sprintf("a%d", ActivityLogCap+9))
	}
}
