package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"lorasense/internal/config"
	"lorasense/internal/db"
	"lorasense/internal/deadletter"
	"lorasense/internal/migrate"
)

const usage = `usage: %s <command>
  migrate              apply pending schema migrations
  deadletters [limit]  print the latest dead letters as JSON
  stats                print dead-letter counts per reason
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	conn, err := db.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	if err := run(context.Background(), conn, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, conn *sql.DB, args []string) error {
	switch args[0] {
	case "migrate":
		if err := migrate.Run(conn); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	case "deadletters":
		limit := 20
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid limit %q", args[1])
			}
			limit = n
		}
		items, err := deadletter.NewRepository(conn).Latest(ctx, limit)
		if err != nil {
			return err
		}
		return printJSON(items)
	case "stats":
		counts, err := deadletter.NewRepository(conn).CountByReason(ctx)
		if err != nil {
			return err
		}
		return printJSON(counts)
	default:
		return fmt.Errorf("unknown command (run without arguments for usage)")
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
