// ABOUTME: Import and export utility for the document store.
// ABOUTME: Moves a viewer's collections in and out of JSON with dry-run and backup support.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/joalcobiz/mylifeos/db"
	"github.com/joalcobiz/mylifeos/models"
)

// Export is the JSON layout written by -export and read by -import.
type Export struct {
	Namespace   string                     `json:"namespace"`
	ExportedAt  time.Time                  `json:"exportedAt"`
	Collections map[string][]models.Record `json:"collections"`
}

// options mirrors the command-line flags.
type options struct {
	dbPath     string
	namespace  string
	importFile string
	exportFile string
	dryRun     bool
	backup     bool
	force      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.dbPath, "db", "", "Path to database file (required)")
	flag.StringVar(&opts.namespace, "namespace", "", "Viewer namespace (uid) to import into or export from (required)")
	flag.StringVar(&opts.importFile, "import", "", "JSON export to import")
	flag.StringVar(&opts.exportFile, "export", "", "Write the namespace's collections to this JSON file")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Show what would happen without making changes")
	flag.BoolVar(&opts.backup, "backup", true, "Create backup before importing")
	flag.BoolVar(&opts.force, "force", false, "Overwrite documents that already exist")
	flag.Parse()

	if opts.dbPath == "" || opts.namespace == "" {
		log.Fatal("Error: -db and -namespace flags are required")
	}
	if (opts.importFile == "") == (opts.exportFile == "") {
		log.Fatal("Error: exactly one of -import or -export is required")
	}

	ctx := context.Background()
	var err error
	if opts.exportFile != "" {
		err = exportNamespace(ctx, opts)
	} else {
		var report *importReport
		report, err = importNamespace(ctx, opts)
		if report != nil {
			log.Printf("Imported %d, overwrote %d, skipped %d documents", report.created, report.overwritten, report.skipped)
		}
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func exportNamespace(ctx context.Context, opts options) error {
	if _, err := os.Stat(opts.dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", opts.dbPath)
	}

	database, err := db.OpenDatabase(opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()
	repo := db.NewDocumentsRepository(database)
	defer repo.Close()

	export := Export{
		Namespace:   opts.namespace,
		ExportedAt:  time.Now().UTC(),
		Collections: map[string][]models.Record{},
	}
	for _, name := range models.Collections() {
		records, err := repo.List(ctx, opts.namespace, name)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", name, err)
		}
		if len(records) > 0 {
			export.Collections[name] = records
		}
		log.Printf("%s: %d documents", name, len(records))
	}

	if opts.dryRun {
		log.Printf("[DRY RUN] Would write %s", opts.exportFile)
		return nil
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := os.WriteFile(opts.exportFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	log.Printf("Wrote %s", opts.exportFile)
	return nil
}

type importReport struct {
	created     int
	overwritten int
	skipped     int
}

func importNamespace(ctx context.Context, opts options) (*importReport, error) {
	data, err := os.ReadFile(opts.importFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to decode import file: %w", err)
	}
	if export.Namespace != "" && export.Namespace != opts.namespace && !opts.force {
		return nil, fmt.Errorf("export belongs to namespace %q, use -force to import it into %q", export.Namespace, opts.namespace)
	}

	if opts.backup && !opts.dryRun {
		if err := backupDatabase(opts.dbPath); err != nil {
			return nil, err
		}
	}

	database, err := db.OpenDatabase(opts.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()
	repo := db.NewDocumentsRepository(database)
	defer repo.Close()

	names := make([]string, 0, len(export.Collections))
	for name := range export.Collections {
		names = append(names, name)
	}
	sort.Strings(names)

	report := &importReport{}
	for _, name := range names {
		for _, rec := range export.Collections[name] {
			if rec.ID == "" || models.IsTempID(rec.ID) {
				log.Printf("Skipping %s document without a confirmed id", name)
				report.skipped++
				continue
			}

			_, err := repo.Get(ctx, opts.namespace, name, rec.ID)
			exists := err == nil
			if err != nil && !errors.Is(err, models.ErrNotFound) {
				return report, fmt.Errorf("failed to read %s/%s: %w", name, rec.ID, err)
			}
			if exists && !opts.force {
				report.skipped++
				continue
			}

			if opts.dryRun {
				log.Printf("[DRY RUN] Would write %s/%s", name, rec.ID)
			} else if err := repo.Set(ctx, opts.namespace, name, rec.ID, rec, false); err != nil {
				return report, fmt.Errorf("failed to write %s/%s: %w", name, rec.ID, err)
			}
			if exists {
				report.overwritten++
			} else {
				report.created++
			}
		}
	}
	return report, nil
}

func backupDatabase(dbPath string) error {
	input, err := os.ReadFile(dbPath)
	if os.IsNotExist(err) {
		// Nothing to back up yet
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", dbPath, time.Now().Format("20060102-150405"))
	log.Printf("Creating backup: %s", backupPath)
	if err := os.WriteFile(backupPath, input, 0600); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	log.Printf("Backup created successfully")
	return nil
}
