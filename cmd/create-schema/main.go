package main

import (
	"context"
	"flag"
	"log"

	"parentguide-backend/config"
	"parentguide-backend/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	drop := flag.Bool("drop", false, "drop question_logs before creating it")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if *drop {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS question_logs CASCADE"); err != nil {
			log.Fatalf("Failed to drop table: %v", err)
		}
		log.Println("✓ Dropped existing question_logs table (if any)")
	}

	if err := repository.NewQuestionLogRepository(pool).EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to create question_logs table: %v", err)
	}
	log.Println("✓ Created question_logs table and indexes")

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM question_logs").Scan(&count); err != nil {
		log.Fatalf("Failed to verify table: %v", err)
	}
	log.Printf("✓ question_logs ready (%d rows)", count)
}
