// internal/interfaces/cli/products.go
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/your-org/storefront-client/internal/domain/product"
	"github.com/your-org/storefront-client/internal/interfaces/confirm"
	"github.com/your-org/storefront-client/internal/interfaces/hooks"
)

const lowStockThreshold = 5

// ProductsPage is the catalog dashboard of store owners and admins
type ProductsPage struct {
	app    *App
	store  *product.Store
	remove *confirm.Gate[string]
}

func newProductsPage(a *App) *ProductsPage {
	p := &ProductsPage{app: a, store: a.deps.Products}
	p.remove = confirm.NewGate(func(ctx context.Context, id string) error {
		return p.store.Remove(ctx, id)
	})
	return p
}

// Run executes a products command
func (p *ProductsPage) Run(ctx context.Context, args []string) error {
	if err := p.app.requireStaff(); err != nil {
		return err
	}
	err := p.app.mount(ctx, "products", func(ctx context.Context) (*hooks.Binding, error) {
		return hooks.UseProducts(ctx, p.app.deps.Auth, p.store, p.app.deps.Logger)
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
	case "show":
		if len(args) != 1 {
			return usageErr("products show <id>")
		}
		prod, err := p.store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return p.show(*prod)
	case "update":
		if len(args) < 2 {
			return usageErr("products update <id> [-name n] [-price p] [-stock n] [-status S]")
		}
		return p.update(ctx, args[0], args[1:])
	case "rm", "remove":
		if len(args) != 1 {
			return usageErr("products rm <id>")
		}
		prod, ok := p.store.Product(args[0])
		if !ok {
			return product.ErrNotFound
		}
		_, err := confirm.Ask(ctx, p.remove, prod.ID, p.app.deps.Prompter, fmt.Sprintf("Delete %s? This cannot be undone.", prod.Name))
		if err != nil {
			return err
		}
		return p.render()
	}
	return usageErr("unknown products command %q", cmd)
}

func (p *ProductsPage) list(ctx context.Context, args []string) error {
	current := p.store.Snapshot().Query

	fs := flag.NewFlagSet("products list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	search := fs.String("search", current.Search, "name or slug")
	status := fs.String("status", string(current.Status), "ACTIVE, DRAFT or ARCHIVED")
	defaultStore := current.StoreID
	if defaultStore == "" && !p.app.deps.Auth.Role().CanManageCatalog() {
		if u := p.app.deps.Auth.User(); u != nil {
			defaultStore = u.StoreID
		}
	}
	storeID := fs.String("store", defaultStore, "only this store")
	if err := fs.Parse(args); err != nil {
		return usageErr("products list: %v", err)
	}

	q := current
	q.Search = *search
	q.StoreID = *storeID
	q.Status = ""
	if *status != "" {
		st, err := product.ParseStatus(*status)
		if err != nil {
			return err
		}
		q.Status = st
	}

	if q != current {
		q.Page = 1
		if err := p.store.Fetch(ctx, q); err != nil {
			return err
		}
	}
	return p.render()
}

func (p *ProductsPage) render() error {
	st := p.store.Snapshot()
	if len(st.Products) == 0 {
		fmt.Fprintln(p.app.out, "No products found")
		return nil
	}

	w := p.app.table("ID", "NAME", "STATUS", "PRICE", "STOCK", "STORE")
	for _, prod := range st.Products {
		stock := strconv.Itoa(prod.TotalStock())
		if prod.LowStock(lowStockThreshold) {
			stock += " (low)"
		}
		price := money(prod.Price)
		if prod.OnSale() {
			price += " (was " + money(prod.CompareAtPrice) + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", prod.ID, prod.Name, prod.Status, price, stock, prod.StoreName)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(p.app.out, "%d of %d products\n", len(st.Products), st.Page.Total)
	return nil
}

func (p *ProductsPage) show(prod product.Product) error {
	fmt.Fprintf(p.app.out, "%s  [%s]\n", prod.Name, prod.Status)
	if prod.Description != "" {
		fmt.Fprintln(p.app.out, prod.Description)
	}
	fmt.Fprintf(p.app.out, "Price %s, stock %d\n\n", money(prod.Price), prod.TotalStock())

	if len(prod.Variants) == 0 {
		return nil
	}
	w := p.app.table("SKU", "VARIANT", "PRICE", "STOCK")
	for _, v := range prod.Variants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", v.SKU, variantTitle(v), money(v.Price), v.Stock)
	}
	return w.Flush()
}

func (p *ProductsPage) update(ctx context.Context, id string, args []string) error {
	fs := flag.NewFlagSet("products update", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "new name")
	price := fs.String("price", "", "new price, e.g. 19.99")
	stock := fs.Int("stock", -1, "new stock")
	status := fs.String("status", "", "ACTIVE, DRAFT or ARCHIVED")
	if err := fs.Parse(args); err != nil {
		return usageErr("products update: %v", err)
	}

	var req product.UpdateRequest
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			req.Name = name
		case "stock":
			req.Stock = stock
		}
	})
	if *price != "" {
		cents, err := parseCents(*price)
		if err != nil {
			return usageErr("products update: %v", err)
		}
		req.Price = &cents
	}
	if *status != "" {
		st, err := product.ParseStatus(*status)
		if err != nil {
			return err
		}
		req.Status = &st
	}

	updated, err := p.store.Update(ctx, id, req)
	if err != nil {
		return err
	}
	return p.show(*updated)
}

func variantTitle(v product.Variant) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{v.Size, v.Color} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return v.Name
	}
	return strings.Join(parts, " / ")
}

// parseCents reads a decimal amount such as 19.99 into cents
func parseCents(s string) (int64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return int64(math.Round(f * 100)), nil
}
