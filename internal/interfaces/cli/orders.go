// internal/interfaces/cli/orders.go
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/your-org/storefront-client/internal/domain/order"
	"github.com/your-org/storefront-client/internal/interfaces/hooks"
)

// OrdersPage lists orders for customers and the store dashboard. Status
// changes are only offered to store staff and are never applied locally
// before the server answers.
type OrdersPage struct {
	app   *App
	store *order.Store
}

func newOrdersPage(a *App) *OrdersPage {
	return &OrdersPage{app: a, store: a.deps.Orders}
}

// Run executes an orders command
func (p *OrdersPage) Run(ctx context.Context, args []string) error {
	if err := p.app.requireSession(); err != nil {
		return err
	}
	err := p.app.mount(ctx, "orders", func(ctx context.Context) (*hooks.Binding, error) {
		return hooks.UseOrders(ctx, p.app.deps.Auth, p.store, p.app.deps.Logger)
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
		return p.list(args)
	case "more":
		if err := p.store.LoadMore(ctx); err != nil {
			return err
		}
		return p.list(nil)
	case "show":
		if len(args) != 1 {
			return usageErr("orders show <id>")
		}
		o, err := p.store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return p.show(*o)
	case "invoice":
		if len(args) != 1 {
			return usageErr("orders invoice <id>")
		}
		return p.invoice(ctx, args[0])
	case "status":
		if len(args) < 2 {
			return usageErr("orders status <id> <STATUS> [note]")
		}
		return p.changeStatus(ctx, args[0], args[1], strings.Join(args[2:], " "))
	}
	return usageErr("unknown orders command %q", cmd)
}

func (p *OrdersPage) list(args []string) error {
	fs := flag.NewFlagSet("orders list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	search := fs.String("search", "", "order number, store, customer or item")
	status := fs.String("status", "", "only orders in this status")
	sortBy := fs.String("sort", string(order.SortByDate), "date or total")
	asc := fs.Bool("asc", false, "oldest or cheapest first")
	if err := fs.Parse(args); err != nil {
		return usageErr("orders list: %v", err)
	}

	q := order.Query{
		Search:     *search,
		Sort:       order.SortField(*sortBy),
		Descending: !*asc,
	}
	if *status != "" {
		st, err := order.ParseStatus(strings.ToUpper(*status))
		if err != nil {
			return err
		}
		q.Status = st
	}
	if q.Sort != order.SortByDate && q.Sort != order.SortByTotal {
		return usageErr("orders list: unknown sort %q", *sortBy)
	}

	orders := p.store.View(q)
	if len(orders) == 0 {
		fmt.Fprintln(p.app.out, "No orders found")
		return nil
	}

	staff := p.app.deps.Auth.Role().CanManageStore()
	header := []string{"ID", "NUMBER", "DATE", "STATUS", "ITEMS", "TOTAL"}
	if staff {
		header = append(header, "CUSTOMER")
	} else {
		header = append(header, "STORE")
	}

	w := p.app.table(header...)
	for _, o := range orders {
		who := o.StoreName
		if staff {
			who = o.CustomerName
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			o.ID, o.OrderNumber, o.CreatedAt.Local().Format("2006-01-02"), o.Status.Label(),
			len(o.Items), o.FormattedTotal(), who)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	page := p.store.Snapshot().Page
	if page.HasMore() {
		fmt.Fprintf(p.app.out, "Page %d of %d, run: orders more\n", page.Number, page.TotalPages)
	}
	return nil
}

func (p *OrdersPage) show(o order.Order) error {
	fmt.Fprintf(p.app.out, "Order %s  %s\n", o.OrderNumber, o.Status.Label())
	fmt.Fprintf(p.app.out, "Placed %s", o.CreatedAt.Local().Format("January 2, 2006"))
	if o.StoreName != "" {
		fmt.Fprintf(p.app.out, " at %s", o.StoreName)
	}
	fmt.Fprintln(p.app.out)
	if o.TrackingNumber != "" {
		fmt.Fprintf(p.app.out, "Tracking: %s\n", o.TrackingNumber)
	}
	fmt.Fprintln(p.app.out)

	currency := o.Currency
	if currency == "" {
		currency = "USD"
	}
	w := p.app.table("ITEM", "VARIANT", "QTY", "PRICE", "TOTAL")
	for _, item := range o.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", item.Name, item.VariantTitle, item.Quantity,
			order.FormatAmount(item.Price, currency), order.FormatAmount(item.Total(), currency))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(p.app.out, "\nTotal %s\n", o.FormattedTotal())
	return nil
}

func (p *OrdersPage) invoice(ctx context.Context, id string) error {
	if p.app.deps.Invoices == nil {
		return fmt.Errorf("invoices are not configured")
	}
	o, err := p.store.Get(ctx, id)
	if err != nil {
		return err
	}

	path, err := p.app.deps.Invoices.SaveInvoice(*o)
	if err != nil {
		p.app.log.WithError(err).WithField("id", id).Warn("Invoice generation failed")
		return fmt.Errorf("generate invoice: %w", err)
	}
	fmt.Fprintf(p.app.out, "Invoice saved to %s\n", path)
	return nil
}

func (p *OrdersPage) changeStatus(ctx context.Context, id, raw, note string) error {
	if err := p.app.requireStaff(); err != nil {
		return err
	}
	status, err := order.ParseStatus(strings.ToUpper(raw))
	if err != nil {
		return err
	}

	o, err := p.store.RequestStatusChange(ctx, id, status, note)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.app.out, "%s is now %s\n", o.OrderNumber, o.Status.Label())
	return nil
}
