// internal/interfaces/cli/notifications.go
package cli

import (
	"context"
	"fmt"

	"github.com/your-org/storefront-client/internal/domain/notification"
	"github.com/your-org/storefront-client/internal/interfaces/confirm"
	"github.com/your-org/storefront-client/internal/interfaces/hooks"
	"github.com/your-org/storefront-client/internal/store"
)

// NotificationsPage is the inbox
type NotificationsPage struct {
	app    *App
	store  *notification.Store
	remove *confirm.Gate[string]
}

func newNotificationsPage(a *App) *NotificationsPage {
	p := &NotificationsPage{app: a, store: a.deps.Notifications}
	p.remove = confirm.NewGate(func(ctx context.Context, id string) error {
		return p.store.Remove(ctx, id)
	})
	return p
}

// Run executes an inbox command
func (p *NotificationsPage) Run(ctx context.Context, args []string) error {
	if err := p.app.requireSession(); err != nil {
		return err
	}
	err := p.app.mount(ctx, "notifications", func(ctx context.Context) (*hooks.Binding, error) {
		return hooks.UseNotifications(ctx, p.app.deps.Auth, p.store, p.app.deps.Logger)
	})
	if err != nil {
		return err
	}

	cmd := "list"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "list":
		return p.list()
	case "more":
		if !p.store.Snapshot().HasMore() {
			fmt.Fprintln(p.app.out, "No more notifications")
			return nil
		}
		if err := p.store.LoadMore(ctx); err != nil {
			return err
		}
		return p.list()
	case "read":
		if len(args) != 1 {
			return usageErr("notifications read <id>")
		}
		if err := p.store.MarkRead(ctx, args[0]); err != nil {
			return err
		}
		return p.list()
	case "read-all":
		if err := p.store.MarkAllRead(ctx); err != nil {
			return err
		}
		return p.list()
	case "rm", "remove":
		if len(args) != 1 {
			return usageErr("notifications rm <id>")
		}
		n, _, ok := store.FindByID(p.store.Snapshot().Items, args[0])
		if !ok {
			return notification.ErrNotFound
		}
		_, err := confirm.Ask(ctx, p.remove, n.ID, p.app.deps.Prompter, fmt.Sprintf("Delete %q?", n.Title))
		if err != nil {
			return err
		}
		return p.list()
	}
	return usageErr("unknown notifications command %q", cmd)
}

func (p *NotificationsPage) list() error {
	st := p.store.Snapshot()
	fmt.Fprintf(p.app.out, "%d unread\n", st.UnreadCount())
	if len(st.Items) == 0 {
		fmt.Fprintln(p.app.out, "Nothing here yet")
		return nil
	}

	w := p.app.table("", "ID", "TYPE", "TITLE", "RECEIVED")
	for _, n := range st.Items {
		marker := " "
		if !n.IsRead {
			marker = "•"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, n.ID, n.Type.Label(), n.Title, n.CreatedAt.Local().Format("Jan 2 15:04"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if st.HasMore() {
		fmt.Fprintf(p.app.out, "Page %d of %d, run: notifications more\n", st.Page.Number, st.Page.TotalPages)
	}
	return nil
}
