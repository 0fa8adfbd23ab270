// internal/interfaces/cli/app.go
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/domain/auth"
	"github.com/your-org/storefront-client/internal/domain/cart"
	"github.com/your-org/storefront-client/internal/domain/notification"
	"github.com/your-org/storefront-client/internal/domain/order"
	"github.com/your-org/storefront-client/internal/domain/product"
	"github.com/your-org/storefront-client/internal/domain/promotion"
	"github.com/your-org/storefront-client/internal/domain/review"
	"github.com/your-org/storefront-client/internal/interfaces/confirm"
	"github.com/your-org/storefront-client/internal/interfaces/hooks"
)

var (
	// ErrUsage is returned for malformed commands
	ErrUsage = errors.New("usage")
	// ErrNotSignedIn is returned by pages that need a session
	ErrNotSignedIn = errors.New("not signed in, run: login -email <email> -password <password>")
	// ErrForbidden is returned when the signed-in role may not use a command
	ErrForbidden = errors.New("your role cannot do that")
)

// InvoiceSaver writes an order's invoice to disk
type InvoiceSaver interface {
	SaveInvoice(o order.Order) (string, error)
}

// Deps are the stores and collaborators the pages drive
type Deps struct {
	Auth          *auth.Store
	Cart          *cart.Store
	Notifications *notification.Store
	Orders        *order.Store
	Products      *product.Store
	Reviews       *review.Store
	Vouchers      *promotion.Store
	Invoices      InvoiceSaver
	Prompter      confirm.Prompter
	Logger        logrus.FieldLogger
	Out           io.Writer
}

// App routes terminal commands to pages. Pages stay mounted until Close, so
// their stores follow the session between commands.
type App struct {
	deps Deps
	out  io.Writer
	log  logrus.FieldLogger

	mu       sync.Mutex
	bindings map[string]*hooks.Binding

	cart          *CartPage
	notifications *NotificationsPage
	orders        *OrdersPage
	products      *ProductsPage
	reviews       *ReviewsPage
	vouchers      *VouchersPage
}

// NewApp creates the command router
func NewApp(deps Deps) *App {
	if deps.Prompter == nil {
		deps.Prompter = confirm.Always(false)
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}

	a := &App{
		deps:     deps,
		out:      deps.Out,
		log:      deps.Logger.WithField("component", "cli"),
		bindings: map[string]*hooks.Binding{},
	}
	a.cart = newCartPage(a)
	a.notifications = newNotificationsPage(a)
	a.orders = newOrdersPage(a)
	a.products = newProductsPage(a)
	a.reviews = newReviewsPage(a)
	a.vouchers = newVouchersPage(a)
	return a
}

// Run executes one command
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "cart":
		return a.cart.Run(ctx, rest)
	case "notifications", "inbox":
		return a.notifications.Run(ctx, rest)
	case "orders":
		return a.orders.Run(ctx, rest)
	case "products":
		return a.products.Run(ctx, rest)
	case "reviews":
		return a.reviews.Run(ctx, rest)
	case "vouchers":
		return a.vouchers.Run(ctx, rest)
	case "help":
		a.usage()
		return nil
	}
	a.usage()
	return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
}

// Shell reads commands line by line until in is exhausted or the user types
// exit. Command errors are printed and do not end the shell. Pass the same
// *bufio.Reader to the terminal prompter so answers and commands share input.
func (a *App) Shell(ctx context.Context, in io.Reader) error {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(a.out, "storefront> ")
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(a.out)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}
		if err := a.Run(ctx, args); err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close unmounts every page
func (a *App) Close() {
	a.mu.Lock()
	bindings := a.bindings
	a.bindings = map[string]*hooks.Binding{}
	a.mu.Unlock()

	for _, b := range bindings {
		b.Unmount()
	}
}

// mount binds a page's store to the session once
func (a *App) mount(ctx context.Context, name string, use func(context.Context) (*hooks.Binding, error)) error {
	a.mu.Lock()
	_, ok := a.bindings[name]
	a.mu.Unlock()
	if ok {
		return nil
	}

	b, err := use(ctx)
	if b != nil {
		a.mu.Lock()
		a.bindings[name] = b
		a.mu.Unlock()
	}
	return err
}

func (a *App) requireSession() error {
	if a.deps.Auth.Token() == "" {
		return ErrNotSignedIn
	}
	return nil
}

func (a *App) requireStaff() error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if !a.deps.Auth.Role().CanManageStore() {
		return ErrForbidden
	}
	return nil
}

func (a *App) table(header ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	return w
}

func (a *App) usage() {
	fmt.Fprint(a.out, `Usage: storefront <command> [arguments]

Session:
  login -email <email> -password <password>
  logout
  whoami

Pages:
  cart [list|add <variant> [qty]|inc <id>|dec <id>|set <id> <qty>|rm <id>|clear]
  notifications [list|more|read <id>|read-all|rm <id>]
  orders [list [-search s] [-status S] [-sort date|total] [-asc]|more|show <id>|invoice <id>|status <id> <STATUS> [note]]
  products [list [-search s] [-status S] [-store id]|more|show <id>|update <id> [-name n] [-price p] [-stock n] [-status S]|rm <id>]
  reviews [list [-product id] [-rating n] [-mine]|more|edit <id> -rating n [-comment c]|reply <id> <text>|rm <id>]
  vouchers [list [-active]|more|rm <id>]
`)
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUsage}, args...)...)
}
