// internal/interfaces/cli/cart.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/your-org/storefront-client/internal/domain/cart"
	"github.com/your-org/storefront-client/internal/domain/order"
	"github.com/your-org/storefront-client/internal/interfaces/confirm"
	"github.com/your-org/storefront-client/internal/interfaces/hooks"
)

// CartPage lists and edits the cart. Removing an item, including a decrement
// at quantity one, goes through the removal confirmation.
type CartPage struct {
	app    *App
	store  *cart.Store
	remove *confirm.Gate[string]
}

func newCartPage(a *App) *CartPage {
	p := &CartPage{app: a, store: a.deps.Cart}
	p.remove = confirm.NewGate(func(ctx context.Context, id string) error {
		return p.store.Remove(ctx, id)
	})
	return p
}

func (p *CartPage) mount(ctx context.Context) error {
	if err := p.app.requireSession(); err != nil {
		return err
	}
	return p.app.mount(ctx, "cart", func(ctx context.Context) (*hooks.Binding, error) {
		return hooks.UseCart(ctx, p.app.deps.Auth, p.store, p.app.deps.Logger)
	})
}

// Run executes a cart command
func (p *CartPage) Run(ctx context.Context, args []string) error {
	if err := p.mount(ctx); err != nil {
		return err
	}

	cmd := "list"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "list":
		return p.list()
	case "add":
		if len(args) < 1 {
			return usageErr("cart add <variant> [qty]")
		}
		qty := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return usageErr("cart add: quantity %q is not a number", args[1])
			}
			qty = n
		}
		if err := p.store.Add(ctx, args[0], qty); err != nil {
			return err
		}
		return p.list()
	case "inc":
		if len(args) != 1 {
			return usageErr("cart inc <id>")
		}
		if err := p.store.Increment(ctx, args[0]); err != nil {
			return err
		}
		return p.list()
	case "dec":
		if len(args) != 1 {
			return usageErr("cart dec <id>")
		}
		err := p.store.Decrement(ctx, args[0])
		if errors.Is(err, cart.ErrRemovalRequiresConfirmation) {
			return p.confirmRemoval(ctx, args[0])
		}
		if err != nil {
			return err
		}
		return p.list()
	case "set":
		if len(args) != 2 {
			return usageErr("cart set <id> <qty>")
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return usageErr("cart set: quantity %q is not a number", args[1])
		}
		if qty == 0 {
			return p.confirmRemoval(ctx, args[0])
		}
		if err := p.store.SetQuantity(ctx, args[0], qty); err != nil {
			return err
		}
		return p.list()
	case "rm", "remove":
		if len(args) != 1 {
			return usageErr("cart rm <id>")
		}
		return p.confirmRemoval(ctx, args[0])
	case "clear":
		ok, err := p.app.deps.Prompter.Confirm("Empty your cart?")
		if err != nil || !ok {
			return err
		}
		return p.store.Clear(ctx)
	}
	return usageErr("unknown cart command %q", cmd)
}

func (p *CartPage) confirmRemoval(ctx context.Context, id string) error {
	item, ok := p.store.Item(id)
	if !ok {
		return cart.ErrItemNotFound
	}

	question := fmt.Sprintf("Remove %s from your cart?", itemTitle(item))
	removed, err := confirm.Ask(ctx, p.remove, id, p.app.deps.Prompter, question)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintln(p.app.out, "Kept in cart")
		return nil
	}
	return p.list()
}

func (p *CartPage) list() error {
	st := p.store.Snapshot()
	if len(st.Items) == 0 {
		fmt.Fprintln(p.app.out, "Your cart is empty")
		return nil
	}

	w := p.app.table("ID", "ITEM", "STORE", "QTY", "PRICE", "TOTAL")
	for _, item := range st.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			item.ID, itemTitle(item), item.Variant.Product.StoreName, item.Quantity,
			money(item.Variant.Price), money(item.LineTotal()))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	totals := p.store.Totals()
	fmt.Fprintf(p.app.out, "\n%d items, subtotal %s", totals.TotalQuantity, money(totals.Subtotal))
	if totals.Savings > 0 {
		fmt.Fprintf(p.app.out, " (you save %s)", money(totals.Savings))
	}
	fmt.Fprintln(p.app.out)
	if st.Stale {
		fmt.Fprintln(p.app.out, "Showing your last saved cart, the marketplace could not be reached")
	}
	return nil
}

func itemTitle(item cart.CartItem) string {
	title := item.Variant.Product.Name
	switch {
	case item.Variant.Size != "" && item.Variant.Color != "":
		title += fmt.Sprintf(" (%s / %s)", item.Variant.Size, item.Variant.Color)
	case item.Variant.Size != "":
		title += fmt.Sprintf(" (%s)", item.Variant.Size)
	case item.Variant.Color != "":
		title += fmt.Sprintf(" (%s)", item.Variant.Color)
	}
	return title
}

func money(cents int64) string {
	return order.FormatAmount(cents, "USD")
}
