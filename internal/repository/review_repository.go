package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/restopulse/review-server/internal/repository/models"
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Migrate creates the review schema when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		rating INTEGER NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		theme TEXT NOT NULL DEFAULT '',
		sentiment TEXT NOT NULL DEFAULT '',
		published_at TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_published_at ON reviews(published_at);
	CREATE INDEX IF NOT EXISTS idx_reviews_source ON reviews(source);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate reviews schema: %w", err)
	}
	return nil
}

// InsertReviews stores a batch of reviews in one transaction and returns
// the number of inserted rows.
func (r *ReviewRepository) InsertReviews(ctx context.Context, reviews []models.Review) (int, error) {
	if len(reviews) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert tx: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO reviews (id, source, rating, text, author, theme, sentiment, published_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rev := range reviews {
		var published any
		if rev.PublishedAt != nil {
			published = rev.PublishedAt.UTC().Format(time.RFC3339)
		}
		createdAt := rev.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		_, err := stmt.ExecContext(ctx,
			rev.ID, rev.Source, rev.Rating, rev.Text, rev.Author,
			rev.Theme, rev.Sentiment, published, createdAt.UTC().Format(time.RFC3339))
		if err != nil {
			return 0, fmt.Errorf("insert review %s: %w", rev.ID, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert tx: %w", err)
	}
	return inserted, nil
}

// ListReviews returns every stored review, most recently published first
// with undated rows last. The ordering is deterministic via the id
// tie-break.
func (r *ReviewRepository) ListReviews(ctx context.Context) ([]models.Review, error) {
	const query = `
		SELECT id, source, rating, text, author, theme, sentiment, published_at, created_at
		FROM reviews
		ORDER BY published_at IS NULL, published_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ListReviews: %w", err)
	}
	defer rows.Close()

	var results []models.Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ListReviews row: %w", err)
		}
		results = append(results, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListReviews: %w", err)
	}
	return results, nil
}

// ListReviewsInPeriod returns the reviews published inside [start, end],
// most recent first. Rows without a publication date never match a
// bounded period, so the predicate excludes them in SQL.
func (r *ReviewRepository) ListReviewsInPeriod(ctx context.Context, start, end time.Time) ([]models.Review, error) {
	const query = `
		SELECT id, source, rating, text, author, theme, sentiment, published_at, created_at
		FROM reviews
		WHERE published_at IS NOT NULL AND published_at >= ? AND published_at <= ?
		ORDER BY published_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query,
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query ListReviewsInPeriod: %w", err)
	}
	defer rows.Close()

	var results []models.Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ListReviewsInPeriod row: %w", err)
		}
		results = append(results, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListReviewsInPeriod: %w", err)
	}
	return results, nil
}

// CountBySource returns the number of stored reviews per source tag,
// largest first.
func (r *ReviewRepository) CountBySource(ctx context.Context) ([]models.SourceCount, error) {
	const query = `
		SELECT source, COUNT(id) AS count
		FROM reviews
		GROUP BY source
		ORDER BY count DESC, source
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query CountBySource: %w", err)
	}
	defer rows.Close()

	var results []models.SourceCount
	for rows.Next() {
		var sc models.SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan CountBySource row: %w", err)
		}
		results = append(results, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate CountBySource: %w", err)
	}
	return results, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (models.Review, error) {
	var (
		rev       models.Review
		published sql.NullString
		created   string
	)
	if err := row.Scan(&rev.ID, &rev.Source, &rev.Rating, &rev.Text, &rev.Author,
		&rev.Theme, &rev.Sentiment, &published, &created); err != nil {
		return models.Review{}, err
	}

	if published.Valid {
		if t, err := time.Parse(time.RFC3339, published.String); err == nil {
			utc := t.UTC()
			rev.PublishedAt = &utc
		}
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		rev.CreatedAt = t.UTC()
	}
	return rev, nil
}
