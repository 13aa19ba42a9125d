package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/pediforte/registration-api/pkg/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	migrateFunc      = database.Migrate  // mockable

	errHelp = errors.New("help provided")
)

type accountManager interface {
	EnsureAdmin(ctx context.Context, username, email, password string) (bool, error)
	ResetPassword(ctx context.Context, username, password string) error
}

type commandLine struct {
	db       *sql.DB
	accounts accountManager
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL - create an admin or reset its password")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME       - reset an admin's password")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]               - run goose migrations (up, down, status, version, redo, reset...)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "adduser":
		cmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		username := cmd.String("username", "", "The admin's username. The password will be prompted next.")
		email := cmd.String("email", "", "The admin's email address.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *username == "" || *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		created, err := cli.accounts.EnsureAdmin(ctx, *username, *email, pwd)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cli.out, "admin %s created\n", *username)
		} else {
			fmt.Fprintf(cli.out, "admin %s already existed; password updated\n", *username)
		}
		return nil

	case "resetpassword":
		cmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		username := cmd.String("username", "", "The admin's username. The password will be prompted next.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *username == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		if err := cli.accounts.ResetPassword(ctx, *username, pwd); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "password for %s updated\n", *username)
		return nil

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return migrateFunc(ctx, cli.db, args[2], args[3:]...)

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
