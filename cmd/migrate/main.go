package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"harborlist.org/internal/migrate"
)

func main() {
	dir := flag.String("dir", "migrations", "directory containing .sql migrations")
	flag.Parse()

	dsn := os.Getenv("HARBORLIST_PG_DSN")
	if dsn == "" {
		log.Fatal("HARBORLIST_PG_DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	applied, err := migrate.NewRunner(db, *dir).Apply(ctx)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if len(applied) == 0 {
		log.Println("no pending migrations")
		return
	}
	for _, name := range applied {
		log.Printf("applied %s", name)
	}
}
