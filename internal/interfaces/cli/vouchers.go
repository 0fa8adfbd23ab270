// internal/interfaces/cli/vouchers.go
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/your-org/storefront-client/internal/domain/promotion"
	"github.com/your-org/storefront-client/internal/interfaces/confirm"
	"github.com/your-org/storefront-client/internal/interfaces/hooks"
)

// VouchersPage is the promotions dashboard
type VouchersPage struct {
	app    *App
	store  *promotion.Store
	remove *confirm.Gate[string]
	now    func() time.Time
}

func newVouchersPage(a *App) *VouchersPage {
	p := &VouchersPage{app: a, store: a.deps.Vouchers, now: time.Now}
	p.remove = confirm.NewGate(func(ctx context.Context, id string) error {
		return p.store.Remove(ctx, id)
	})
	return p
}

// Run executes a vouchers command
func (p *VouchersPage) Run(ctx context.Context, args []string) error {
	if err := p.app.requireStaff(); err != nil {
		return err
	}
	err := p.app.mount(ctx, "vouchers", func(ctx context.Context) (*hooks.Binding, error) {
		return hooks.UsePromotions(ctx, p.app.deps.Auth, p.store, p.app.deps.Logger)
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
		return p.list(ctx, args)
	case "more":
		if err := p.store.LoadMore(ctx); err != nil {
			return err
		}
		return p.render()
	case "rm", "remove":
		if len(args) != 1 {
			return usageErr("vouchers rm <id>")
		}
		v, ok := p.store.Voucher(args[0])
		if !ok {
			return promotion.ErrNotFound
		}
		if _, err := confirm.Ask(ctx, p.remove, v.ID, p.app.deps.Prompter, fmt.Sprintf("Delete voucher %s?", v.Code)); err != nil {
			return err
		}
		return p.render()
	}
	return usageErr("unknown vouchers command %q", cmd)
}

func (p *VouchersPage) list(ctx context.Context, args []string) error {
	current := p.store.Snapshot().Filter

	fs := flag.NewFlagSet("vouchers list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	active := fs.Bool("active", current.ActiveOnly, "only usable vouchers")
	if err := fs.Parse(args); err != nil {
		return usageErr("vouchers list: %v", err)
	}

	f := current
	f.ActiveOnly = *active
	if f != current {
		f.Page = 1
		if err := p.store.Fetch(ctx, f); err != nil {
			return err
		}
	}
	return p.render()
}

func (p *VouchersPage) render() error {
	st := p.store.Snapshot()
	if len(st.Vouchers) == 0 {
		fmt.Fprintln(p.app.out, "No vouchers")
		return nil
	}

	now := p.now()
	fmt.Fprintf(p.app.out, "%d of %d usable now\n", st.ActiveCount(now), len(st.Vouchers))

	w := p.app.table("ID", "CODE", "TYPE", "VALUE", "MIN SPEND", "USES LEFT", "STATE")
	for _, v := range st.Vouchers {
		uses := "∞"
		if n := v.Remaining(); n >= 0 {
			uses = fmt.Sprint(n)
		}
		state := "active"
		switch {
		case v.Exhausted():
			state = "used up"
		case !v.Active(now) && now.Before(v.StartsAt):
			state = "scheduled"
		case !v.Active(now):
			state = "expired"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Code, v.Type.Label(), v.Describe(), money(v.MinSpend), uses, state)
	}
	return w.Flush()
}
