// Command admin is an operator tool: it runs database migrations and
// creates pre-verified accounts without going through the email flow.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"github.com/dberezins/threatlens/internal/server/auth"
	"github.com/dberezins/threatlens/internal/server/config"
	"github.com/dberezins/threatlens/internal/server/models"
	"github.com/dberezins/threatlens/internal/server/repositories/repomanager"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "migrate":
		err = runMigrate(args)
	case "create-account":
		err = runCreateAccount(args)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <migrate|create-account> [flags]")
}

func openDB(dsn string) (*sql.DB, error) {
	if dsn == "" {
		cfg := &config.Config{}
		cfg.LoadDefaults()
		dsn = cfg.DatabaseDSN
	}
	return sql.Open("pgx", dsn)
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dsn := fs.String("d", "", "database DSN")
	fs.Parse(args)

	db, err := openDB(*dsn)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	fmt.Println("migrations applied")
	return nil
}

func runCreateAccount(args []string) error {
	fs := flag.NewFlagSet("create-account", flag.ExitOnError)
	dsn := fs.String("d", "", "database DSN")
	name := fs.String("n", "", "display name")
	email := fs.String("e", "", "email address")
	fs.Parse(args)

	if *name == "" || *email == "" {
		return fmt.Errorf("both -n and -e are required")
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash error: %w", err)
	}

	db, err := openDB(*dsn)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	repo := rm.Accounts(db)

	account := &models.Account{
		ID:           uuid.NewString(),
		Name:         *name,
		Email:        *email,
		PasswordHash: hash,
		Verified:     true,
	}

	if _, err := repo.Create(context.Background(), account); err != nil {
		return fmt.Errorf("create error: %w", err)
	}

	fmt.Printf("account %s created\n", account.ID)
	return nil
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	p1, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}

	fmt.Print("Repeat password: ")
	p2, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}

	if string(p1) != string(p2) {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(p1) == 0 {
		return "", fmt.Errorf("password must not be empty")
	}

	return string(p1), nil
}
