package notify

import (
	"strings"
	"testing"

	"groceryhub/internal/model"
)

func TestNotificationTitle(t *testing.T) {
	if got := notificationTitle(model.GroceryList{Name: "Feria"}); got != "Update in Feria" {
		t.Errorf("title = %q, want %q", got, "Update in Feria")
	}

	long := strings.Repeat("Compras de la casa ", 5)
	got := notificationTitle(model.GroceryList{Name: long})
	want := "Update in " + long[:42] + "..."
	if got != want {
		t.Errorf("title = %q, want %q", got, want)
	}
}

func TestNotificationBody(t *testing.T) {
	tests := []struct {
		name string
		a    model.ListActivity
		want string
	}{
		{
			name: "added",
			a:    model.ListActivity{UserEmail: "ana@example.com", Action: model.ActivityAdded, ItemName: "Arroz"},
			want: "ana@example.com added Arroz",
		},
		{
			name: "removed",
			a:    model.ListActivity{UserEmail: "ana@example.com", Action: model.ActivityRemoved, ItemName: "Pan"},
			want: "ana@example.com removed Pan",
		},
		{
			name: "checked",
			a:    model.ListActivity{UserEmail: "ana@example.com", Action: model.ActivityChecked, ItemName: "Leche"},
			want: "ana@example.com checked off Leche",
		},
		{
			name: "anonymous actor",
			a:    model.ListActivity{Action: model.ActivityUpdated, ItemName: "Cafe"},
			want: "Someone updated Cafe",
		},
		{
			name: "unknown action",
			a:    model.ListActivity{UserEmail: "ana@example.com", Action: "renamed"},
			want: "ana@example.com updated the list",
		},
		{
			name: "long item name truncated",
			a: model.ListActivity{
				UserEmail: "ana@example.com",
				Action:    model.ActivityAdded,
				ItemName:  strings.Repeat("Galletas surtidas ", 4),
			},
			want: "ana@example.com added " + strings.Repeat("Galletas surtidas ", 4)[:42] + "...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := notificationBody(tt.a); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}
