package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/restopulse/review-server/internal/importer"
	"github.com/restopulse/review-server/internal/pipeline"
	"github.com/restopulse/review-server/internal/repository"
	"github.com/restopulse/review-server/internal/service"
	dbbuilder "github.com/restopulse/review-server/pkg/database"
)

var (
	importFile   string
	importSource string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a review export into the analytics database",
	Long: `Import parses a CSV or XLSX review export, normalizes and classifies
each row, and stores the result in the sqlite database. The format is
picked from the file extension.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Path to the CSV or XLSX export (required)")
	importCmd.Flags().StringVarP(&importSource, "source", "s", "", "Source label for the imported reviews (default: file name)")
	_ = importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	var (
		raws    []pipeline.RawReview
		skipped int
	)
	switch ext := strings.ToLower(filepath.Ext(importFile)); ext {
	case ".csv":
		raws, skipped, err = importer.ParseCSV(f)
	case ".xlsx":
		raws, skipped, err = importer.ParseXLSX(f)
	default:
		return fmt.Errorf("unsupported file extension %q (want .csv or .xlsx)", ext)
	}
	if err != nil {
		return fmt.Errorf("parse export: %w", err)
	}

	fmt.Printf("Parsed %d rows (%d skipped)\n", len(raws), skipped)

	source := importSource
	if source == "" {
		source = strings.TrimSuffix(filepath.Base(importFile), filepath.Ext(importFile))
	}

	svc, cleanup, err := openReviewService()
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := svc.ImportReviews(context.Background(), source, raws, skipped)
	if err != nil {
		return fmt.Errorf("import reviews: %w", err)
	}

	fmt.Printf("Imported %d reviews into %s (source %q, %d skipped)\n",
		summary.Imported, dbPath, source, summary.Skipped)
	return nil
}

func openReviewService() (*service.ReviewService, func(), error) {
	db, err := dbbuilder.New(
		dbbuilder.WithDriver("sqlite3"),
		dbbuilder.WithDataSource(dbPath),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	if err := repository.Migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	repo := repository.NewReviewRepository(db)
	svc := service.NewReviewService(repo, zap.NewNop())
	return svc, func() { db.Close() }, nil
}
