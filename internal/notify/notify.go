// Package notify fans recorded list activities out to the devices of list
// members as push notifications. Delivery is best effort on every level: a
// missing recipient, a device without a push token and a push service error
// are all logged and swallowed, never surfaced to the operation that
// produced the activity.
package notify

import (
	"context"
	"fmt"
	"strings"

	"groceryhub/internal/client"
	"groceryhub/internal/database"
	"groceryhub/internal/misc"
	"groceryhub/internal/model"
)

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

type Dispatcher struct {
	DB     database.Database
	Client client.Client
	Logger logger
}

// ActivityRecorded notifies every list member except the actor. Recipients
// are the list owner plus all collaborators; offline identities have no
// account and are skipped.
func (d Dispatcher) ActivityRecorded(ctx context.Context, l model.GroceryList, a model.ListActivity) {
	var recipients []model.User
	if !model.IsOfflineUser(l.CreatedBy) && l.CreatedBy != a.UserID {
		owner, err := d.DB.UserFindByID(ctx, l.CreatedBy)
		if err != nil {
			d.Logger.Errorf("ActivityRecorded: Error finding owner with ID: %s of ListID: %s, err: %v", l.CreatedBy, l.ID, err)
		} else {
			recipients = append(recipients, owner)
		}
	}

	var emails []string
	for _, email := range l.Collaborators {
		if !strings.EqualFold(email, a.UserEmail) {
			emails = append(emails, email)
		}
	}
	if len(emails) > 0 {
		us, err := d.DB.UsersFindByEmails(ctx, emails)
		if err != nil {
			d.Logger.Errorf("ActivityRecorded: Error finding collaborators of ListID: %s, err: %v", l.ID, err)
		} else {
			recipients = append(recipients, us...)
		}
	}

	var pushTokens []string
	for _, u := range recipients {
		for _, dev := range u.Devices {
			if dev.NotificationsEnabled && dev.PushToken != "" {
				pushTokens = append(pushTokens, dev.PushToken)
			}
		}
	}
	if len(pushTokens) == 0 {
		d.Logger.Debugf("ActivityRecorded: No devices to notify for ListID: %s, ActivityID: %s", l.ID, a.ID)
		return
	}

	pushReq := client.PushSendRequest{
		Notification: client.PushNotification{
			Title:       notificationTitle(l),
			Body:        notificationBody(a),
			ClickAction: "FLUTTER_NOTIFICATION_CLICK",
			Sound:       "default",
		},
		Data:            client.PushData{ListID: l.ID, ActivityID: a.ID},
		RegistrationIDs: pushTokens,
	}
	d.Logger.Infof("ActivityRecorded: Sending notification to %d Device(s) of %d User(s) for ListID: %s, ActivityID: %s",
		len(pushTokens), len(recipients), l.ID, a.ID)
	pushResp, err := d.Client.PushSendNotification(pushReq)
	if err != nil {
		d.Logger.Errorf("ActivityRecorded: Error sending notification for ListID: %s, ActivityID: %s, PushSendRequest: %+v, err: %v",
			l.ID, a.ID, pushReq, err)
		return
	}
	d.Logger.Infof("ActivityRecorded: Send notification results for ListID: %s, ActivityID: %s, success: %d, failure: %d",
		l.ID, a.ID, pushResp.Success, pushResp.Failure)
}

func notificationTitle(l model.GroceryList) string {
	return fmt.Sprintf("Update in %s", misc.StringLimit(l.Name, 45))
}

func notificationBody(a model.ListActivity) string {
	actor := a.UserEmail
	if actor == "" {
		actor = "Someone"
	}
	item := misc.StringLimit(a.ItemName, 45)
	switch a.Action {
	case model.ActivityAdded:
		return fmt.Sprintf("%s added %s", actor, item)
	case model.ActivityRemoved:
		return fmt.Sprintf("%s removed %s", actor, item)
	case model.ActivityUpdated:
		return fmt.Sprintf("%s updated %s", actor, item)
	case model.ActivityChecked:
		return fmt.Sprintf("%s checked off %s", actor, item)
	case model.ActivityUnchecked:
		return fmt.Sprintf("%s unchecked %s", actor, item)
	}
	return fmt.Sprintf("%s updated the list", actor)
}
