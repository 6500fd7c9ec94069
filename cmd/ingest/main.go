package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"text2sql-be/internal/bootstrap"
	"text2sql-be/internal/config"
	"text2sql-be/pkg/database"
)

// The ingest command prepares a database for querying: it embeds the chosen
// text columns into vector columns and writes the table descriptions the
// pipeline's table selector reads.
//
// Usage:
//
//	ingest -table Goods -columns Description
//	ingest -table Goods            (lists embeddable columns and describes only)
func main() {
	table := flag.String("table", "", "table to process (required)")
	columns := flag.String("columns", "", "comma separated text columns to embed")
	flag.Parse()

	if *table == "" {
		log.Fatal("missing -table")
	}

	cfg := config.Load()
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx := context.Background()

	candidates, err := container.IngestService.TextColumns(ctx, *table)
	if err != nil {
		log.Fatalf("Failed to inspect table %s: %v", *table, err)
	}
	log.Printf("Table %s embeddable text columns: %s", *table, strings.Join(candidates, ", "))

	var chosen []string
	for _, part := range strings.Split(*columns, ",") {
		if name := strings.TrimSpace(part); name != "" {
			chosen = append(chosen, name)
		}
	}

	if err := container.IngestService.ProcessTable(ctx, *table, chosen); err != nil {
		log.Fatalf("Failed to process table %s: %v", *table, err)
	}
	log.Printf("Done processing table %s", *table)
}
