package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"bug_track_app_go/config"
	"bug_track_app_go/db"
	"bug_track_app_go/models"
	"bug_track_app_go/services"
)

// Offline bulk import: either a local .xlsx file or a Google Sheet
// link, upserted by TCID against the configured database.
func main() {
	filePath := flag.String("file", "", "Path to an .xlsx workbook")
	sheetURL := flag.String("sheet", "", "Google Sheets link or spreadsheet id")
	flag.Parse()

	if (*filePath == "") == (*sheetURL == "") {
		log.Fatal("Provide exactly one of -file or -sheet")
	}

	cfg := config.Load()

	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&models.Bug{}, &models.OperationLog{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	var reader io.Reader
	if *filePath != "" {
		f, err := os.Open(*filePath)
		if err != nil {
			log.Fatalf("Failed to open workbook: %v", err)
		}
		defer f.Close()
		reader = f
	} else {
		r, err := services.FetchGoogleSheet(context.Background(), *sheetURL)
		if err != nil {
			log.Fatalf("Failed to download sheet: %v", err)
		}
		reader = r
	}

	result, err := services.ImportWorkbook(db.DB, reader)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Rows processed: %d\n", result.TotalRows)
	fmt.Printf("Imported: %d\n", result.Imported)
	fmt.Printf("Updated:  %d\n", result.Updated)
	fmt.Printf("Errors:   %d\n", result.Errors)
	for _, detail := range result.Details {
		fmt.Printf("  - %s\n", detail)
	}
}
