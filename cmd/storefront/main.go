// storefront drives the checkout flow against a running API from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, `storefront - cart and checkout from the terminal

Usage:
    storefront <command> [options]

Commands:
    login     -email <email> -password <password>
    cart      list the cart with totals
    qty       -id <line> -n <quantity>
    rm        -id <line>
    checkout  -ids <line,line,...> [-method cod|razorpay]

The session token is read from STOREFRONT_TOKEN; login prints one.

Examples:
    export STOREFRONT_TOKEN=$(storefront login -email a@example.com -password secret)
    storefront cart
    storefront checkout -ids 6f1c...,9a2e... -method cod
`)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		usage()
		return errors.New("command is required")
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	verbose := os.Getenv("STOREFRONT_DEBUG") != ""
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(cfg, log, os.Stdin, os.Stdout)
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "Account email (required)")
		password := fs.String("password", "", "Account password (required)")
		_ = fs.Parse(args)
		if *email == "" || *password == "" {
			return errors.New("email and password are required")
		}
		return app.login(ctx, *email, *password)

	case "cart":
		return app.showCart(ctx)

	case "qty":
		fs := flag.NewFlagSet("qty", flag.ExitOnError)
		id := fs.String("id", "", "Cart line id (required)")
		n := fs.Int("n", 0, "New quantity, at least 1")
		_ = fs.Parse(args)
		lineID, err := uuid.Parse(*id)
		if err != nil {
			return fmt.Errorf("invalid line id %q", *id)
		}
		return app.setQuantity(ctx, lineID, *n)

	case "rm":
		fs := flag.NewFlagSet("rm", flag.ExitOnError)
		id := fs.String("id", "", "Cart line id (required)")
		_ = fs.Parse(args)
		lineID, err := uuid.Parse(*id)
		if err != nil {
			return fmt.Errorf("invalid line id %q", *id)
		}
		return app.remove(ctx, lineID)

	case "checkout":
		fs := flag.NewFlagSet("checkout", flag.ExitOnError)
		ids := fs.String("ids", "", "Comma-separated cart line ids to buy")
		method := fs.String("method", "cod", "Payment method: cod or razorpay")
		_ = fs.Parse(args)
		lineIDs, err := parseIDs(*ids)
		if err != nil {
			return err
		}
		return app.checkout(ctx, lineIDs, *method)

	case "help", "-h", "--help":
		usage()
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// parseIDs splits a comma-separated list of line ids, ignoring blanks.
func parseIDs(s string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid line id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
