package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var embedded embed.FS

// Files holds the versioned schema shipped with the binary.
func Files() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

type migration struct {
	Name    string
	Version int
}

// Apply runs every V<n>__name.sql file in fsys that is not yet recorded in
// schema_migrations, in version order, each inside its own transaction.
func Apply(db *sqlx.DB, fsys fs.FS) ([]string, error) {
	if err := ensureTable(db); err != nil {
		return nil, err
	}
	migs, err := listMigrations(fsys)
	if err != nil {
		return nil, err
	}
	applied := map[string]bool{}
	names := []string{}
	if err := db.Select(&names, `SELECT name FROM schema_migrations`); err != nil {
		return nil, err
	}
	for _, name := range names {
		applied[name] = true
	}
	ran := []string{}
	for _, mig := range migs {
		if applied[mig.Name] {
			continue
		}
		if err := applyMigration(db, fsys, mig); err != nil {
			return ran, err
		}
		ran = append(ran, mig.Name)
	}
	return ran, nil
}

func ensureTable(db *sqlx.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  id SERIAL PRIMARY KEY,
  version INT NOT NULL UNIQUE,
  name TEXT NOT NULL UNIQUE,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	return err
}

func listMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	migs := make([]migration, 0, len(entries))
	seen := map[int]string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, ok := parseVersion(entry.Name())
		if !ok {
			return nil, fmt.Errorf("migration %s: name must look like V<n>__description.sql", entry.Name())
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", other, entry.Name(), version)
		}
		seen[version] = entry.Name()
		migs = append(migs, migration{Name: entry.Name(), Version: version})
	}
	sort.Slice(migs, func(i, j int) bool {
		return migs[i].Version < migs[j].Version
	})
	return migs, nil
}

func applyMigration(db *sqlx.DB, fsys fs.FS, mig migration) error {
	content, err := fs.ReadFile(fsys, mig.Name)
	if err != nil {
		return err
	}
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("apply %s: %w", mig.Name, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name); err != nil {
		return err
	}
	return tx.Commit()
}

func parseVersion(name string) (int, bool) {
	if !strings.HasPrefix(name, "V") {
		return 0, false
	}
	parts := strings.SplitN(name[1:], "__", 2)
	if len(parts) != 2 {
		return 0, false
	}
	value, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	return value, true
}
