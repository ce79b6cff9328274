// Package admincli implements the operator commands of the gadget API:
// creating admin accounts and seeding the sample inventory.
package admincli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/anshc022/imf-gadget-api/internal/flagx"
	"github.com/anshc022/imf-gadget-api/internal/server/auth"
	"github.com/anshc022/imf-gadget-api/internal/server/models"
	"github.com/anshc022/imf-gadget-api/internal/server/seed"
	"github.com/anshc022/imf-gadget-api/internal/server/services"
)

// ErrUsage is returned for an unknown or missing command.
var ErrUsage = errors.New("usage: admin <create-admin [-u username] | seed [-f file.yaml]>")

// operator is the identity seeding runs under. The CLI talks to the
// database directly, so it acts with admin rights.
var operator = auth.Identity{UserID: "admin-cli", Username: "admin-cli", Role: models.RoleAdmin}

type Users interface {
	Register(ctx context.Context, cmd services.RegisterCommand) (*models.User, error)
}

type Gadgets interface {
	Import(ctx context.Context, id auth.Identity, list []models.Gadget) (int, error)
}

type App struct {
	users   Users
	gadgets Gadgets
	in      *bufio.Reader
	out     io.Writer
	now     func() time.Time
}

func NewApp(us Users, gs Gadgets, in io.Reader, out io.Writer) *App {
	return &App{
		users:   us,
		gadgets: gs,
		in:      bufio.NewReader(in),
		out:     out,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run dispatches args[0] as a command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create-admin":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		fs.SetOutput(a.out)
		username := fs.String("u", "", "admin username")
		if err := fs.Parse(flagx.FilterArgs(rest, []string{"-u"})); err != nil {
			return err
		}
		return a.CreateAdmin(ctx, *username)

	case "seed":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		fs.SetOutput(a.out)
		file := fs.String("f", "", "seed file (defaults to the built-in sample inventory)")
		if err := fs.Parse(flagx.FilterArgs(rest, []string{"-f"})); err != nil {
			return err
		}
		return a.Seed(ctx, *file)

	case "help", "-h", "--help":
		fmt.Fprintln(a.out, ErrUsage.Error())
		return nil
	}

	return fmt.Errorf("unknown command %q: %w", cmd, ErrUsage)
}

// CreateAdmin registers an admin account. The username is prompted for when
// empty; the password is always read without echo and confirmed.
func (a *App) CreateAdmin(ctx context.Context, username string) error {
	var err error
	if username == "" {
		if username, err = GetSimpleText(a.in, "Admin username", a.out); err != nil {
			return err
		}
	}

	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	confirm, err := GetPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	user, err := a.users.Register(ctx, services.RegisterCommand{
		Username: username,
		Password: password,
		Role:     string(models.RoleAdmin),
	})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Fprintf(a.out, "Admin user created: %s\n", user.Username)
	fmt.Fprintln(a.out, "Please change the password after first login")
	return nil
}

// Seed imports gadgets from path, or the built-in sample inventory when path
// is empty. The import is all or nothing.
func (a *App) Seed(ctx context.Context, path string) error {
	var (
		f   seed.File
		err error
	)
	if path == "" {
		f, err = seed.Default()
	} else {
		f, err = seed.Load(path)
	}
	if err != nil {
		return err
	}

	list, err := f.Build(a.now())
	if err != nil {
		return err
	}

	n, err := a.gadgets.Import(ctx, operator, list)
	if err != nil {
		return fmt.Errorf("failed to seed gadgets: %w", err)
	}

	for _, g := range list {
		fmt.Fprintln(a.out, "Created gadget:", g.Name)
	}
	fmt.Fprintf(a.out, "%d sample gadgets created successfully\n", n)
	return nil
}
