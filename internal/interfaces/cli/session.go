// internal/interfaces/cli/session.go
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
)

func (a *App) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return usageErr("login: %v", err)
	}

	u, err := a.deps.Auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", u.Email, u.Role.Label())
	return nil
}

func (a *App) logout(ctx context.Context) error {
	if a.deps.Auth.Token() == "" {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	if err := a.deps.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) whoami() error {
	st := a.deps.Auth.Snapshot()
	if !st.Authenticated() || st.User == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}

	u := st.User
	w := a.table("NAME", "EMAIL", "ROLE", "STORE", "EXPIRES")
	expires := "-"
	if !st.ExpiresAt.IsZero() {
		expires = st.ExpiresAt.Local().Format("2006-01-02 15:04")
	}
	store := u.StoreID
	if store == "" {
		store = "-"
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.Name, u.Email, u.Role.Label(), store, expires)
	return w.Flush()
}
