// internal/interfaces/cli/reviews.go
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/your-org/storefront-client/internal/domain/review"
	"github.com/your-org/storefront-client/internal/interfaces/confirm"
	"github.com/your-org/storefront-client/internal/interfaces/hooks"
)

// ReviewsPage lists reviews. Customers edit their own reviews while edits
// remain; store staff reply once per review.
type ReviewsPage struct {
	app    *App
	store  *review.Store
	remove *confirm.Gate[string]
}

func newReviewsPage(a *App) *ReviewsPage {
	p := &ReviewsPage{app: a, store: a.deps.Reviews}
	p.remove = confirm.NewGate(func(ctx context.Context, id string) error {
		return p.store.Remove(ctx, id)
	})
	return p
}

// Run executes a reviews command
func (p *ReviewsPage) Run(ctx context.Context, args []string) error {
	if err := p.app.requireSession(); err != nil {
		return err
	}
	err := p.app.mount(ctx, "reviews", func(ctx context.Context) (*hooks.Binding, error) {
		return hooks.UseReviews(ctx, p.app.deps.Auth, p.store, p.app.deps.Logger)
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
	case "edit":
		if len(args) < 1 {
			return usageErr("reviews edit <id> -rating n [-comment c]")
		}
		return p.edit(ctx, args[0], args[1:])
	case "reply":
		if len(args) < 2 {
			return usageErr("reviews reply <id> <text>")
		}
		if err := p.app.requireStaff(); err != nil {
			return err
		}
		if _, err := p.store.Reply(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
			return err
		}
		return p.render()
	case "rm", "remove":
		if len(args) != 1 {
			return usageErr("reviews rm <id>")
		}
		r, ok := p.store.Review(args[0])
		if !ok {
			return review.ErrNotFound
		}
		question := fmt.Sprintf("Delete the %d-star review of %s?", r.Rating, r.ProductName)
		if _, err := confirm.Ask(ctx, p.remove, r.ID, p.app.deps.Prompter, question); err != nil {
			return err
		}
		return p.render()
	}
	return usageErr("unknown reviews command %q", cmd)
}

func (p *ReviewsPage) list(ctx context.Context, args []string) error {
	current := p.store.Snapshot().Filter

	fs := flag.NewFlagSet("reviews list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	productID := fs.String("product", current.ProductID, "only this product")
	rating := fs.Int("rating", current.Rating, "only this rating")
	mine := fs.Bool("mine", current.Mine, "only your reviews")
	if err := fs.Parse(args); err != nil {
		return usageErr("reviews list: %v", err)
	}

	f := current
	f.ProductID = *productID
	f.Rating = *rating
	f.Mine = *mine
	if f != current {
		f.Page = 1
		if err := p.store.Fetch(ctx, f); err != nil {
			return err
		}
	}
	return p.render()
}

func (p *ReviewsPage) render() error {
	st := p.store.Snapshot()
	if len(st.Reviews) == 0 {
		fmt.Fprintln(p.app.out, "No reviews yet")
		return nil
	}

	sum := st.Summary()
	fmt.Fprintf(p.app.out, "%d reviews, average %.1f★\n", sum.Count, sum.Average)

	userID := ""
	if u := p.app.deps.Auth.User(); u != nil {
		userID = u.ID
	}
	staff := p.app.deps.Auth.Role().CanManageStore()

	w := p.app.table("ID", "PRODUCT", "RATING", "COMMENT", "REPLY", "ACTIONS")
	for _, r := range st.Reviews {
		reply := "-"
		if r.Reply != nil {
			reply = truncate(r.Reply.Text, 30)
		}
		actions := strings.Join(reviewControls(r, userID, staff), ", ")
		if actions == "" {
			actions = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.ProductName, strings.Repeat("★", r.Rating), truncate(r.Comment, 40), reply, actions)
	}
	return w.Flush()
}

// reviewControls lists the actions offered on r. The edit control disappears
// once the review has used all its edits.
func reviewControls(r review.Review, userID string, staff bool) []string {
	var controls []string
	if r.Author.ID == userID && r.CanEdit() {
		controls = append(controls, fmt.Sprintf("edit (%d left)", r.EditsLeft()))
	}
	if staff && r.CanReply() {
		controls = append(controls, "reply")
	}
	if r.Author.ID == userID || staff {
		controls = append(controls, "rm")
	}
	return controls
}

func (p *ReviewsPage) edit(ctx context.Context, id string, args []string) error {
	current, ok := p.store.Review(id)
	if !ok {
		return review.ErrNotFound
	}
	if !current.CanEdit() {
		return review.ErrEditLimitReached
	}

	fs := flag.NewFlagSet("reviews edit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	rating := fs.Int("rating", current.Rating, "1 to 5 stars")
	comment := fs.String("comment", current.Comment, "review text")
	if err := fs.Parse(args); err != nil {
		return usageErr("reviews edit: %v", err)
	}

	updated, err := p.store.Edit(ctx, id, review.EditRequest{
		Rating:  *rating,
		Comment: *comment,
		Images:  current.Images,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(p.app.out, "Review %s saved, %s\n", updated.ID, editsLeft(*updated))
	return nil
}

func editsLeft(r review.Review) string {
	switch n := r.EditsLeft(); n {
	case 0:
		return "no edits left"
	case 1:
		return "1 edit left"
	default:
		return strconv.Itoa(n) + " edits left"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
