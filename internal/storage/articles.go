package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// UpsertArticles batch-upserts classified records inside one transaction.
// On conflict the AI-derived fields and fetched_at are overwritten
// (last-write-wins); the original source fields stay as first written.
// The batch is all-or-nothing: a failing row rolls back the whole run.
func (s *Store) UpsertArticles(ctx context.Context, records []models.AnalyzedArticle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO articles (
			id, title, url, source, published_at, author, score,
			summary, category, tags, relevance_score,
			is_product_or_tool, product_name, competitors,
			competitive_advantage, fetched_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			summary               = excluded.summary,
			category              = excluded.category,
			tags                  = excluded.tags,
			relevance_score       = excluded.relevance_score,
			is_product_or_tool    = excluded.is_product_or_tool,
			product_name          = excluded.product_name,
			competitors           = excluded.competitors,
			competitive_advantage = excluded.competitive_advantage,
			fetched_at            = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]

		tags, err := json.Marshal(r.Tags)
		if err != nil {
			return fmt.Errorf("marshaling tags for %q: %w", r.ID, err)
		}
		competitors, err := json.Marshal(r.Competitors)
		if err != nil {
			return fmt.Errorf("marshaling competitors for %q: %w", r.ID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Title, r.URL, r.Source,
			r.PublishedAt.UTC().Format(sqliteTimeLayout),
			r.Author, r.Score,
			r.Summary, r.Category, string(tags), r.RelevanceScore,
			boolToInt(r.IsProductOrTool), r.ProductName, string(competitors),
			r.CompetitiveAdvantage,
			r.FetchedAt.UTC().Format(sqliteTimeLayout),
		); err != nil {
			return fmt.Errorf("upserting article %q: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListOptions filters and pages ListArticles results.
type ListOptions struct {
	Limit        int
	Offset       int
	Category     string
	Source       string
	MinRelevance int
	Search       string
}

// ListArticles returns stored records ordered by relevance descending,
// most recently fetched first.
func (s *Store) ListArticles(ctx context.Context, opts ListOptions) ([]models.AnalyzedArticle, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	conditions := []string{"1=1"}
	var args []any
	if opts.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, opts.Category)
	}
	if opts.Source != "" {
		conditions = append(conditions, "source LIKE ?")
		args = append(args, "%"+opts.Source+"%")
	}
	if opts.MinRelevance > 0 {
		conditions = append(conditions, "relevance_score >= ?")
		args = append(args, opts.MinRelevance)
	}
	if opts.Search != "" {
		conditions = append(conditions, "(title LIKE ? OR summary LIKE ?)")
		args = append(args, "%"+opts.Search+"%", "%"+opts.Search+"%")
	}
	args = append(args, opts.Limit, opts.Offset)

	query := `SELECT id, title, url, source, published_at, author, score,
			summary, category, tags, relevance_score,
			is_product_or_tool, product_name, competitors,
			competitive_advantage, fetched_at
		FROM articles
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY relevance_score DESC, fetched_at DESC
		LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// TopArticles returns the highest-relevance records for digest delivery,
// ordered by relevance then source rank score.
func (s *Store) TopArticles(ctx context.Context, minRelevance, limit int) ([]models.AnalyzedArticle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, url, source, published_at, author, score,
			summary, category, tags, relevance_score,
			is_product_or_tool, product_name, competitors,
			competitive_advantage, fetched_at
		 FROM articles
		 WHERE relevance_score >= ?
		 ORDER BY relevance_score DESC, score DESC
		 LIMIT ?`,
		minRelevance, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying top articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// Stats summarizes the stored article set.
type Stats struct {
	TotalArticles   int            `json:"total_articles"`
	ProductArticles int            `json:"product_articles"`
	ByCategory      map[string]int `json:"by_category"`
}

// GetStats returns counts over the stored articles.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByCategory: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles",
	).Scan(&stats.TotalArticles); err != nil {
		return nil, fmt.Errorf("counting articles: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles WHERE is_product_or_tool = 1",
	).Scan(&stats.ProductArticles); err != nil {
		return nil, fmt.Errorf("counting product articles: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT COALESCE(category, ''), COUNT(*) FROM articles GROUP BY category ORDER BY COUNT(*) DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("counting by category: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scanning category count: %w", err)
		}
		stats.ByCategory[category] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category counts: %w", err)
	}

	return stats, nil
}

// scanArticles drains rows into records.
func scanArticles(rows *sql.Rows) ([]models.AnalyzedArticle, error) {
	var records []models.AnalyzedArticle
	for rows.Next() {
		var (
			r           models.AnalyzedArticle
			source      sql.NullString
			publishedAt sql.NullString
			author      sql.NullString
			summary     sql.NullString
			category    sql.NullString
			tags        sql.NullString
			isProduct   int
			productName sql.NullString
			competitors sql.NullString
			advantage   sql.NullString
			fetchedAt   string
		)

		if err := rows.Scan(
			&r.ID, &r.Title, &r.URL, &source, &publishedAt, &author, &r.Score,
			&summary, &category, &tags, &r.RelevanceScore,
			&isProduct, &productName, &competitors, &advantage, &fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}

		r.Source = source.String
		r.Author = author.String
		r.Summary = summary.String
		r.Category = category.String
		r.IsProductOrTool = isProduct != 0
		r.ProductName = productName.String
		r.CompetitiveAdvantage = advantage.String
		r.PublishedAt = parseTime(publishedAt.String)
		r.FetchedAt = parseTime(fetchedAt)

		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &r.Tags); err != nil {
				return nil, fmt.Errorf("unmarshaling tags for %q: %w", r.ID, err)
			}
		}
		if competitors.Valid && competitors.String != "" {
			if err := json.Unmarshal([]byte(competitors.String), &r.Competitors); err != nil {
				return nil, fmt.Errorf("unmarshaling competitors for %q: %w", r.ID, err)
			}
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating articles: %w", err)
	}
	return records, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
