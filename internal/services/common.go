package services

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const pgUniqueViolation = "23505"

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Pagination is a 1-based page window. A nil *Pagination means no window.
type Pagination struct {
	Page    int
	PerPage int
}

func NewPagination(page, perPage int) *Pagination {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return &Pagination{Page: page, PerPage: perPage}
}

func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// clause appends LIMIT/OFFSET placeholders to a query and its args.
func (p *Pagination) clause(query string, args []any) (string, []any) {
	if p == nil {
		return query, args
	}
	return query + " LIMIT ? OFFSET ?", append(args, p.PerPage, p.Offset())
}

// window slices items the way clause would have limited rows.
func window[T any](items []T, p *Pagination) []T {
	if p == nil {
		return items
	}
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// nextID allocates an integer id for tables keyed by BIGINT. The sequence
// row stays locked until tx ends, which serialises concurrent allocations.
// Ids are never reused, even after the highest row is deleted.
func nextID(tx *sqlx.Tx, table string) (int64, error) {
	var id int64
	err := tx.Get(&id, tx.Rebind(`UPDATE id_sequences SET value = value + 1 WHERE name = ? RETURNING value`), table)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("no id sequence for %s", table)
	}
	return id, err
}

// isUniqueViolation reports a UNIQUE or primary key conflict from either
// driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func Slugify(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	lastDash := false
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return uuid.NewString()
	}
	return slug
}

func NormalizeRequired(value, message string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrBadRequest(message)
	}
	return trimmed, nil
}

func trimString(value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// compactJSON validates raw and returns it compacted as stored text, or nil
// for an absent or null value. A JSON string holding JSON is unwrapped first.
func compactJSON(raw json.RawMessage, field string) (*string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err == nil && json.Valid([]byte(inner)) {
			trimmed = strings.TrimSpace(inner)
		}
	}
	var out bytes.Buffer
	if err := json.Compact(&out, []byte(trimmed)); err != nil {
		return nil, ErrBadRequest(field + " must be valid JSON")
	}
	value := out.String()
	return &value, nil
}

func strPtr(value string) *string {
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
