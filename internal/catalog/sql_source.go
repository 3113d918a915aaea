package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"context"
)

// SQLSource reads the catalog from a relational catalog_items table. Both
// sqlite (local/dev) and postgres deployments are supported through
// database/sql; the rows are ordered by (group_name, position) so the
// flattened index is deterministic.
type SQLSource struct {
	db     *sql.DB
	driver string
}

// NewSQLSource opens the database for the given driver ("sqlite" or
// "postgres") and verifies connectivity.
func NewSQLSource(driver, dsn string) (*SQLSource, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLSource{db: db, driver: driver}, nil
}

// RunMigrations applies the catalog schema migrations from migrationsPath.
func (s *SQLSource) RunMigrations(migrationsPath string) error {
	var (
		driver database.Driver
		err    error
	)
	switch s.driver {
	case "postgres":
		driver, err = migratepostgres.WithInstance(s.db, &migratepostgres.Config{})
	default:
		driver, err = migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		s.driver,
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (s *SQLSource) Load(ctx context.Context) (*Catalog, error) {
	query := `
		SELECT id, group_name, name, price, image_path
		FROM catalog_items
		ORDER BY group_name, position, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &StorageError{Op: "query catalog_items", Err: err}
	}
	defer rows.Close()

	var c Catalog
	for rows.Next() {
		var (
			item  Item
			group string
		)
		if err := rows.Scan(&item.ID, &group, &item.Name, &item.Price, &item.ImagePath); err != nil {
			return nil, &StorageError{Op: "scan catalog_items", Err: err}
		}
		if item.Price < 0 {
			return nil, &StorageError{
				Op:  "validate catalog_items",
				Err: fmt.Errorf("item %s has negative price %d", item.ID, item.Price),
			}
		}

		if n := len(c.Groups); n == 0 || c.Groups[n-1].Name != group {
			c.Groups = append(c.Groups, Group{Name: group})
		}
		g := &c.Groups[len(c.Groups)-1]
		g.Items = append(g.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate catalog_items", Err: err}
	}

	return &c, nil
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}
