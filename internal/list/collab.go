package list

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"groceryhub/internal/model"
)

// AddCollaborator invites email onto the list with the given permission.
// Only the owner or an active admin may invite. Re-inviting an existing
// collaborator overwrites their permission and resets them to pending.
func (s *Service) AddCollaborator(ctx context.Context, listID string, actor Identity, email string, permission model.Permission) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		s.Logger.Debugf("AddCollaborator: Invalid email: %s for ListID: %s, err: %v", email, listID, err)
		return false
	}
	if !permission.Valid() {
		s.Logger.Debugf("AddCollaborator: Invalid permission: %s for ListID: %s", permission, listID)
		return false
	}

	l, err := s.GetListByID(ctx, listID)
	if err != nil {
		s.Logger.Debugf("AddCollaborator: ListID: %s not found, err: %v", listID, err)
		return false
	}
	if !s.canManageCollaborators(l, actor) {
		s.Logger.Infof("AddCollaborator: Permission denied for UserID: %s on ListID: %s", actor.ID, listID)
		return false
	}

	c := l.UpsertCollaborator(addr.Address, permission, time.Now())
	if err = s.persistCollaborators(ctx, l, actor.ID); err != nil {
		s.Logger.Errorf("AddCollaborator: Error persisting collaborators for ListID: %s, err: %v", listID, err)
		return false
	}

	s.RecordListActivity(ctx, listID, actor, model.ListActivity{
		Action:   model.ActivityAdded,
		ItemName: c.Email,
	})
	return true
}

// RemoveCollaborator removes email from both collaborator representations.
// Allowed for the owner, an active admin, or the collaborator removing
// themselves.
func (s *Service) RemoveCollaborator(ctx context.Context, listID string, actor Identity, email string) bool {
	l, err := s.GetListByID(ctx, listID)
	if err != nil {
		s.Logger.Debugf("RemoveCollaborator: ListID: %s not found, err: %v", listID, err)
		return false
	}
	self := strings.EqualFold(actor.Email, email)
	if !self && !s.canManageCollaborators(l, actor) {
		s.Logger.Infof("RemoveCollaborator: Permission denied for UserID: %s on ListID: %s", actor.ID, listID)
		return false
	}
	if !l.RemoveCollaborator(email) {
		s.Logger.Debugf("RemoveCollaborator: Email: %s not a collaborator on ListID: %s", email, listID)
		return false
	}
	if err = s.persistCollaborators(ctx, l, actor.ID); err != nil {
		s.Logger.Errorf("RemoveCollaborator: Error persisting collaborators for ListID: %s, err: %v", listID, err)
		return false
	}

	s.RecordListActivity(ctx, listID, actor, model.ListActivity{
		Action:   model.ActivityRemoved,
		ItemName: strings.ToLower(email),
	})
	return true
}

// JoinViaLink enrolls the caller on the list. An invited identity is
// promoted from pending to active with their invited permission; an
// uninvited identity joins directly as an active write collaborator, the
// share link itself being the invitation. The owner joining is a no-op.
func (s *Service) JoinViaLink(ctx context.Context, listID string, identity Identity) (model.GroceryList, error) {
	l, err := s.GetListByID(ctx, listID)
	if err != nil {
		return model.GroceryList{}, err
	}
	if identity.ID == l.CreatedBy {
		return l, nil
	}

	if c := l.Collaborator(identity.Email); c != nil {
		if c.Status == model.CollaboratorActive {
			return l, nil
		}
		c.Status = model.CollaboratorActive
	} else {
		l.EnrollCollaborator(identity.Email, model.PermissionWrite, time.Now())
	}
	if err = s.persistCollaborators(ctx, l, identity.ID); err != nil {
		return model.GroceryList{}, errors.Wrapf(err, "error joining ListID: %s for UserID: %s", listID, identity.ID)
	}

	s.RecordListActivity(ctx, listID, identity, model.ListActivity{
		Action:   model.ActivityAdded,
		ItemName: strings.ToLower(identity.Email),
	})
	return l, nil
}

// CheckListPermission reports whether identity holds at least the required
// permission on the list. A missing list always denies.
func (s *Service) CheckListPermission(ctx context.Context, listID string, identity Identity, required model.Permission) bool {
	l, err := s.GetListByID(ctx, listID)
	if err != nil {
		return false
	}
	return l.PermissionFor(identity.ID, identity.Email, required)
}

// RecordListActivity stamps a with an ID, the actor and a timestamp,
// appends it to the capped activity log and fans it out to the notifier.
// Notification failures never affect the result.
func (s *Service) RecordListActivity(ctx context.Context, listID string, actor Identity, a model.ListActivity) bool {
	a = s.newActivity(listID, actor, a)

	if s.useLocal(ctx, listID, actor.ID) {
		if err := s.Local.ActivityAppend(ctx, listID, a); err != nil {
			s.Logger.Errorf("RecordListActivity: Error appending activity to local store for ListID: %s, err: %v", listID, err)
			return false
		}
	} else if err := s.Remote.ActivityAppend(ctx, listID, a); err != nil {
		s.Logger.Warnf("RecordListActivity: Remote append failed for ListID: %s, falling back to local store, err: %v", listID, err)
		if err = s.Local.ActivityAppend(ctx, listID, a); err != nil {
			s.Logger.Errorf("RecordListActivity: Error appending activity for ListID: %s, both stores failed, err: %v", listID, err)
			return false
		}
	}

	if s.Notifier != nil {
		l, err := s.GetListByID(ctx, listID)
		if err != nil {
			s.Logger.Errorf("RecordListActivity: Error getting ListID: %s for notification fan-out, err: %v", listID, err)
		} else {
			s.Notifier.ActivityRecorded(ctx, l, a)
		}
	}
	return true
}

// canManageCollaborators allows the owner and active admins.
func (s *Service) canManageCollaborators(l model.GroceryList, actor Identity) bool {
	if actor.ID != "" && actor.ID == l.CreatedBy {
		return true
	}
	c := l.Collaborator(actor.Email)
	return c != nil && c.Status == model.CollaboratorActive && c.Permissions == model.PermissionAdmin
}

// persistCollaborators writes both collaborator representations in one
// update, remote first. When the remote write fails and the list has no
// local copy yet, the whole aggregate is seeded into the local store so the
// mutation survives.
func (s *Service) persistCollaborators(ctx context.Context, l model.GroceryList, actorID string) error {
	if s.useLocal(ctx, l.ID, actorID) {
		return s.Local.CollaboratorsUpdate(ctx, l)
	}
	err := s.Remote.CollaboratorsUpdate(ctx, l)
	if err == nil {
		return nil
	}
	s.Logger.Warnf("persistCollaborators: Remote update failed for ListID: %s, falling back to local store, err: %v", l.ID, err)
	err = s.Local.CollaboratorsUpdate(ctx, l)
	if errors.Is(err, ErrListNotFound) {
		return s.Local.ListInsert(ctx, l)
	}
	return err
}
