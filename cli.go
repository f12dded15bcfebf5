package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/isdelr/webempresa/internal/config"
	"github.com/isdelr/webempresa/internal/database"
	"github.com/isdelr/webempresa/internal/mail"
	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/seed"
	"github.com/isdelr/webempresa/internal/services"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	serveFunc        = serve             // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	cfg *config.Config
	db  *sqlx.DB
	svc appServices
	out io.Writer
}

func newCommandLine(cfg *config.Config, db *sqlx.DB) *commandLine {
	events := services.NewEventService(db, nil)
	mailer := mail.New(cfg.SendgridAPIKey, appName, cfg.DefaultFromEmail)
	return &commandLine{cfg: cfg, db: db, svc: newServices(cfg, db, events, mailer), out: os.Stdout}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  serve                                  - run the content API and the site (default)")
	fmt.Fprintln(cli.out, "  migrate [version]                      - apply pending migrations, or print the schema version")
	fmt.Fprintln(cli.out, "  seed [-file FILE]                      - load the initial content, skipping existing records")
	fmt.Fprintln(cli.out, "  createadmin -username NAME -email MAIL - create a super admin, the password is prompted next")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset a user's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		return serveFunc(cli.cfg, cli.db)
	}

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedFile := seedCmd.String("file", "", "YAML fixture to load instead of the built-in content.")

	createAdminCmd := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	createAdminUname := createAdminCmd.String("username", "", "The admin's username.")
	createAdminEmail := createAdminCmd.String("email", "", "The admin's email. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	ctx := context.Background()
	switch args[1] {
	case "serve":
		return serveFunc(cli.cfg, cli.db)

	case "migrate":
		if len(args) > 2 && args[2] == "version" {
			v, err := database.Version(cli.db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "schema version %d\n", v)
			return nil
		}
		if len(args) > 2 {
			cli.printUsage()
			return errHelp
		}
		return database.Migrate(cli.db)

	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if err := database.Migrate(cli.db); err != nil {
			return err
		}
		return runSeed(ctx, cli.svc, *seedFile)

	case "createadmin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *createAdminEmail == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		if err := database.Migrate(cli.db); err != nil {
			return err
		}
		return cli.createAdmin(ctx, *createAdminUname, *createAdminEmail, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.svc.Users.SetPassword(ctx, *resetPasswordUname, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// createAdmin creates a super admin, or promotes and resets the matching account.
func (cli *commandLine) createAdmin(ctx context.Context, uname, email, pwd string) error {
	active := true
	in := services.UserInput{
		Username:    uname,
		Email:       email,
		Password:    pwd,
		Role:        models.RoleSuperAdmin,
		IsActive:    &active,
		IsStaff:     true,
		IsSuperuser: true,
	}

	login := uname
	if login == "" {
		login = email
	}
	usr, err := cli.svc.Users.GetUserByLogin(ctx, login)
	switch {
	case errors.Is(err, services.ErrNotFound):
		usr, err = cli.svc.Users.CreateUser(ctx, in)
		if err != nil {
			return err
		}
		log.Info().Str("username", usr.Username).Msg("Admin created")
		return nil
	case err != nil:
		return err
	}

	if _, err := cli.svc.Users.UpdateUser(ctx, usr.ID, services.UserUpdate{
		Username:    &in.Username,
		Email:       &in.Email,
		Password:    &in.Password,
		Role:        &in.Role,
		IsActive:    in.IsActive,
		IsStaff:     &in.IsStaff,
		IsSuperuser: &in.IsSuperuser,
	}); err != nil {
		return err
	}
	log.Info().Str("username", usr.Username).Msg("Existing user promoted to admin")
	return nil
}

func runSeed(ctx context.Context, svc appServices, path string) error {
	fixture, err := seed.Load(path)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, seed.Services{
		Users:        svc.Users,
		Company:      svc.Company,
		Plans:        svc.Plans,
		FAQs:         svc.FAQs,
		Testimonials: svc.Testimonials,
		Pages:        svc.Pages,
	}, fixture)
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	log.Info().Int("created", res.Total()).Int("pages", res.Pages).Int("plans", res.Plans).Msg("Seed applied")
	return nil
}
