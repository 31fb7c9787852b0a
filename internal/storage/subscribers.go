package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
)

// CreateSubscriber inserts a subscriber and returns the stored row.
// Re-subscribing an existing email reactivates it and updates the
// preferences instead of failing on the unique constraint.
func (s *Store) CreateSubscriber(ctx context.Context, sub *models.Subscriber) (*models.Subscriber, error) {
	email := strings.ToLower(strings.TrimSpace(sub.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid subscriber email %q", sub.Email)
	}

	categories, err := json.Marshal(sub.Categories)
	if err != nil {
		return nil, fmt.Errorf("marshaling categories: %w", err)
	}

	minRelevance := sub.MinRelevance
	if minRelevance <= 0 {
		minRelevance = 5
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers (email, name, active, categories, min_relevance, created_at)
		 VALUES (?, ?, 1, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
			name          = excluded.name,
			active        = 1,
			categories    = excluded.categories,
			min_relevance = excluded.min_relevance`,
		email, sub.Name, string(categories), minRelevance,
		time.Now().UTC().Format(sqliteTimeLayout),
	); err != nil {
		return nil, fmt.Errorf("inserting subscriber %q: %w", email, err)
	}

	return s.GetSubscriberByEmail(ctx, email)
}

// GetSubscriberByEmail returns the subscriber with the given email, or
// ErrNotFound.
func (s *Store) GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, active, categories, min_relevance, created_at
		 FROM subscribers WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	)

	sub, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying subscriber %q: %w", email, err)
	}
	return sub, nil
}

// ActiveSubscribers returns all subscribers eligible for digest delivery.
func (s *Store) ActiveSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, name, active, categories, min_relevance, created_at
		 FROM subscribers WHERE active = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying active subscribers: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning subscriber: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscribers: %w", err)
	}
	return subs, nil
}

// DeleteSubscriber removes the subscriber with the given email. It
// returns ErrNotFound when no row matched.
func (s *Store) DeleteSubscriber(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM subscribers WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email)),
	)
	if err != nil {
		return fmt.Errorf("deleting subscriber %q: %w", email, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// LogDigest records one digest delivery attempt.
func (s *Store) LogDigest(ctx context.Context, recipient string, articleCount int, status string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO digest_log (sent_at, recipient_email, article_count, status)
		 VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(sqliteTimeLayout), recipient, articleCount, status,
	); err != nil {
		return fmt.Errorf("logging digest for %q: %w", recipient, err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row scanner) (*models.Subscriber, error) {
	var (
		sub        models.Subscriber
		name       sql.NullString
		active     int
		categories sql.NullString
		createdAt  string
	)

	if err := row.Scan(&sub.ID, &sub.Email, &name, &active, &categories, &sub.MinRelevance, &createdAt); err != nil {
		return nil, err
	}

	sub.Name = name.String
	sub.Active = active != 0
	sub.CreatedAt = parseTime(createdAt)

	if categories.Valid && categories.String != "" {
		if err := json.Unmarshal([]byte(categories.String), &sub.Categories); err != nil {
			return nil, fmt.Errorf("unmarshaling categories for %q: %w", sub.Email, err)
		}
	}

	return &sub, nil
}
