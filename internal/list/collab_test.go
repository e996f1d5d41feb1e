package list

import (
	"context"
	"sync"
	"testing"
	"time"

	"groceryhub/internal/model"
)

type captureNotifier struct {
	mu         sync.Mutex
	activities []model.ListActivity
}

func (n *captureNotifier) ActivityRecorded(_ context.Context, _ model.GroceryList, a model.ListActivity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.activities = append(n.activities, a)
}

func TestAddCollaborator(t *testing.T) {
	remote := newMemStore(ownedList("l1", "owner"))
	s := newService(remote, newMemStore())
	owner := Identity{ID: "owner", Email: "owner@example.com"}

	if !s.AddCollaborator(context.Background(), "l1", owner, "Friend@Example.com", model.PermissionWrite) {
		t.Fatal("AddCollaborator returned false for owner")
	}

	l, _ := remote.ListFindOne(context.Background(), "l1")
	c := l.Collaborator("friend@example.com")
	if c == nil {
		t.Fatal("collaborator not persisted")
	}
	if c.Status != model.CollaboratorPending {
		t.Errorf("Status = %q, want %q", c.Status, model.CollaboratorPending)
	}
	if c.Permissions != model.PermissionWrite {
		t.Errorf("Permissions = %q, want %q", c.Permissions, model.PermissionWrite)
	}
	if len(l.Collaborators) != 1 || l.Collaborators[0] != "friend@example.com" {
		t.Errorf("flat set = %v, want mirrored lowercase email", l.Collaborators)
	}
	if len(l.Activities) != 1 || l.Activities[0].Action != model.ActivityAdded {
		t.Errorf("Activities = %v, want one added entry", l.Activities)
	}
}

func TestAddCollaboratorValidation(t *testing.T) {
	remote := newMemStore(ownedList("l1", "owner"))
	s := newService(remote, newMemStore())
	owner := Identity{ID: "owner"}

	if s.AddCollaborator(context.Background(), "l1", owner, "not-an-email", model.PermissionWrite) {
		t.Error("invalid email accepted")
	}
	if s.AddCollaborator(context.Background(), "l1", owner, "a@example.com", model.Permission("superuser")) {
		t.Error("invalid permission accepted")
	}
	if s.AddCollaborator(context.Background(), "missing", owner, "a@example.com", model.PermissionRead) {
		t.Error("missing list accepted")
	}
}

func TestAddCollaboratorPermissionGate(t *testing.T) {
	l := ownedList("l1", "owner")
	l.EnrollCollaborator("admin@example.com", model.PermissionAdmin, time.Now())
	l.EnrollCollaborator("writer@example.com", model.PermissionWrite, time.Now())
	remote := newMemStore(l)
	s := newService(remote, newMemStore())

	admin := Identity{ID: "u-admin", Email: "admin@example.com"}
	if !s.AddCollaborator(context.Background(), "l1", admin, "new@example.com", model.PermissionRead) {
		t.Error("active admin denied adding a collaborator")
	}

	writer := Identity{ID: "u-writer", Email: "writer@example.com"}
	if s.AddCollaborator(context.Background(), "l1", writer, "other@example.com", model.PermissionRead) {
		t.Error("write collaborator allowed to add collaborators")
	}

	stranger := Identity{ID: "u-x", Email: "x@example.com"}
	if s.AddCollaborator(context.Background(), "l1", stranger, "other@example.com", model.PermissionRead) {
		t.Error("stranger allowed to add collaborators")
	}
}

func TestRemoveCollaborator(t *testing.T) {
	l := ownedList("l1", "owner")
	l.EnrollCollaborator("friend@example.com", model.PermissionWrite, time.Now())
	remote := newMemStore(l)
	s := newService(remote, newMemStore())

	friend := Identity{ID: "u2", Email: "friend@example.com"}
	other := Identity{ID: "u3", Email: "other@example.com"}

	if s.RemoveCollaborator(context.Background(), "l1", other, "friend@example.com") {
		t.Error("non-admin allowed to remove another collaborator")
	}
	if !s.RemoveCollaborator(context.Background(), "l1", friend, "friend@example.com") {
		t.Error("collaborator denied removing themselves")
	}

	got, _ := remote.ListFindOne(context.Background(), "l1")
	if got.Collaborator("friend@example.com") != nil {
		t.Error("collaborator still present after removal")
	}
	if s.RemoveCollaborator(context.Background(), "l1", Identity{ID: "owner"}, "friend@example.com") {
		t.Error("removing an absent collaborator reported success")
	}
}

func TestJoinViaLinkPromotesPending(t *testing.T) {
	l := ownedList("l1", "owner")
	l.UpsertCollaborator("invited@example.com", model.PermissionAdmin, time.Now())
	remote := newMemStore(l)
	s := newService(remote, newMemStore())

	joined, err := s.JoinViaLink(context.Background(), "l1", Identity{ID: "u2", Email: "invited@example.com"})
	if err != nil {
		t.Fatalf("JoinViaLink returned err: %v", err)
	}
	c := joined.Collaborator("invited@example.com")
	if c == nil || c.Status != model.CollaboratorActive {
		t.Errorf("collaborator = %+v, want promoted to active", c)
	}
	if c.Permissions != model.PermissionAdmin {
		t.Errorf("Permissions = %q, want invited tier kept", c.Permissions)
	}
}

func TestJoinViaLinkEnrollsUninvited(t *testing.T) {
	remote := newMemStore(ownedList("l1", "owner"))
	s := newService(remote, newMemStore())

	joined, err := s.JoinViaLink(context.Background(), "l1", Identity{ID: "u2", Email: "walkin@example.com"})
	if err != nil {
		t.Fatalf("JoinViaLink returned err: %v", err)
	}
	c := joined.Collaborator("walkin@example.com")
	if c == nil {
		t.Fatal("uninvited joiner not enrolled")
	}
	if c.Status != model.CollaboratorActive || c.Permissions != model.PermissionWrite {
		t.Errorf("collaborator = %+v, want active write", c)
	}
}

func TestJoinViaLinkOwnerNoop(t *testing.T) {
	remote := newMemStore(ownedList("l1", "owner"))
	s := newService(remote, newMemStore())

	joined, err := s.JoinViaLink(context.Background(), "l1", Identity{ID: "owner", Email: "owner@example.com"})
	if err != nil {
		t.Fatalf("JoinViaLink returned err: %v", err)
	}
	if len(joined.CollaborationDetails) != 0 {
		t.Errorf("owner join added collaborator entry: %v", joined.CollaborationDetails)
	}
}

func TestCheckListPermission(t *testing.T) {
	l := ownedList("l1", "owner")
	l.EnrollCollaborator("reader@example.com", model.PermissionRead, time.Now())
	s := newService(newMemStore(l), newMemStore())
	ctx := context.Background()

	if !s.CheckListPermission(ctx, "l1", Identity{ID: "owner"}, model.PermissionAdmin) {
		t.Error("owner denied admin")
	}
	reader := Identity{ID: "u2", Email: "reader@example.com"}
	if !s.CheckListPermission(ctx, "l1", reader, model.PermissionRead) {
		t.Error("reader denied read")
	}
	if s.CheckListPermission(ctx, "l1", reader, model.PermissionWrite) {
		t.Error("reader allowed write")
	}
	if s.CheckListPermission(ctx, "missing", Identity{ID: "owner"}, model.PermissionRead) {
		t.Error("missing list granted permission")
	}
}

func TestRecordListActivity(t *testing.T) {
	remote := newMemStore(ownedList("l1", "owner"))
	notifier := &captureNotifier{}
	s := newService(remote, newMemStore())
	s.Notifier = notifier
	actor := Identity{ID: "owner", Email: "owner@example.com"}

	ok := s.RecordListActivity(context.Background(), "l1", actor, model.ListActivity{
		Action:   model.ActivityAdded,
		ItemName: "Arroz",
	})
	if !ok {
		t.Fatal("RecordListActivity returned false")
	}

	l, _ := remote.ListFindOne(context.Background(), "l1")
	if len(l.Activities) != 1 {
		t.Fatalf("len(Activities) = %d, want 1", len(l.Activities))
	}
	a := l.Activities[0]
	if a.ID == "" || a.ListID != "l1" || a.UserID != "owner" || a.UserEmail != "owner@example.com" {
		t.Errorf("activity = %+v, want stamped with ID and actor", a)
	}
	if a.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}

	if len(notifier.activities) != 1 || notifier.activities[0].ID != a.ID {
		t.Errorf("notifier got %v, want the recorded activity", notifier.activities)
	}
}

func TestRecordListActivityFallsBackToLocal(t *testing.T) {
	local := newMemStore(ownedList("l1", "owner"))
	s := newService(failStore{}, local)

	ok := s.RecordListActivity(context.Background(), "l1", Identity{ID: "owner"}, model.ListActivity{
		Action: model.ActivityRemoved,
	})
	if !ok {
		t.Fatal("RecordListActivity returned false with healthy local store")
	}
	l, _ := local.ListFindOne(context.Background(), "l1")
	if len(l.Activities) != 1 {
		t.Errorf("len(Activities) = %d, want 1 in local store", len(l.Activities))
	}
}

func TestRecordListActivityBothStoresFail(t *testing.T) {
	s := newService(failStore{}, failStore{})
	ok := s.RecordListActivity(context.Background(), "l1", Identity{ID: "owner"}, model.ListActivity{
		Action: model.ActivityAdded,
	})
	if ok {
		t.Error("RecordListActivity reported success with both stores failing")
	}
}
