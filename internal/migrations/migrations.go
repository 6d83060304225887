package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var files embed.FS

type migration struct {
	Name    string
	Version string
	Body    string
}

// Apply runs every embedded migration not yet recorded in schema_migrations.
// The SQL is kept to the subset Postgres and SQLite share.
func Apply(db *sqlx.DB) error {
	return apply(db, files)
}

func apply(db *sqlx.DB, source fs.FS) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TIMESTAMP NOT NULL
)`); err != nil {
		return fmt.Errorf("schema_migrations: %w", err)
	}
	migs, err := listMigrations(source)
	if err != nil {
		return err
	}
	applied := map[string]bool{}
	versions := []string{}
	if err := db.Select(&versions, `SELECT version FROM schema_migrations`); err != nil {
		return err
	}
	for _, version := range versions {
		applied[version] = true
	}
	for _, mig := range migs {
		if applied[mig.Version] {
			continue
		}
		if err := applyMigration(db, mig); err != nil {
			return err
		}
	}
	return nil
}

func listMigrations(source fs.FS) ([]migration, error) {
	names, err := fs.Glob(source, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	migs := make([]migration, 0, len(names))
	for _, name := range names {
		base := path.Base(name)
		version := parseVersion(base)
		if version == "" {
			return nil, fmt.Errorf("migration %s: name must look like V<n>__<desc>.sql", base)
		}
		content, err := fs.ReadFile(source, name)
		if err != nil {
			return nil, err
		}
		migs = append(migs, migration{Name: base, Version: version, Body: string(content)})
	}
	sort.Slice(migs, func(i, j int) bool {
		iVersion, iOk := parseVersionNumber(migs[i].Name)
		jVersion, jOk := parseVersionNumber(migs[j].Name)
		switch {
		case iOk && jOk && iVersion != jVersion:
			return iVersion < jVersion
		case iOk != jOk:
			return iOk
		default:
			return migs[i].Name < migs[j].Name
		}
	})
	return migs, nil
}

func applyMigration(db *sqlx.DB, mig migration) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(mig.Body) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply %s: %w", mig.Name, err)
		}
	}
	if _, err := tx.Exec(tx.Rebind(`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`),
		mig.Version, mig.Name, time.Now().UTC()); err != nil {
		return fmt.Errorf("record %s: %w", mig.Name, err)
	}
	return tx.Commit()
}

// splitStatements cuts a script on semicolons that end a line. Migrations
// never embed semicolons inside literals.
func splitStatements(body string) []string {
	lines := strings.Split(body, "\n")
	stmts := []string{}
	var current strings.Builder
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSuffix(strings.TrimSpace(current.String()), ";"))
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}

func parseVersion(name string) string {
	if !strings.HasPrefix(name, "V") {
		return ""
	}
	parts := strings.SplitN(name[1:], "__", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[0])
}

func parseVersionNumber(name string) (int, bool) {
	raw := parseVersion(name)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
