package catalog

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rjgems/backend/internal/domain"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore is the persistent product catalog.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the catalog database in dataDir and runs pending migrations.
// Pass ":memory:" for an in-memory database (used by tests).
func OpenSQLite(dataDir string) (*SQLiteStore, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "catalog.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection: avoids "database is locked" and keeps :memory: a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migrate applies embedded SQL migrations that haven't been run yet.
func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var applied int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&applied); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

const productColumns = `id, name, category, price, description, specifications, images, featured, in_stock, created_at, updated_at`

// List returns products matching filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter domain.ProductFilter) ([]domain.CatalogItem, error) {
	var (
		where []string
		args  []any
	)

	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Featured {
		where = append(where, "featured = 1")
	}
	if filter.MinPrice > 0 {
		where = append(where, "price >= ?")
		args = append(args, filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		where = append(where, "price <= ?")
		args = append(args, filter.MaxPrice)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + escapeLike(term) + "%"
		// Specification values only; keys such as "material" never match
		where = append(where, `(name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR EXISTS (SELECT 1 FROM json_each(specifications) WHERE json_each.value LIKE ? ESCAPE '\'))`)
		args = append(args, like, like, like)
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid ASC LIMIT ?"
	args = append(args, filter.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	items := []domain.CatalogItem{}
	for rows.Next() {
		item, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return items, nil
}

// Get returns a single product by id
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.CatalogItem, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	item, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateDescription replaces a product's description
func (s *SQLiteStore) UpdateDescription(ctx context.Context, id, description string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET description = ?, updated_at = ? WHERE id = ?",
		description, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	if n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Upsert inserts or replaces products in one transaction
func (s *SQLiteStore) Upsert(ctx context.Context, items []domain.CatalogItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			price = excluded.price,
			description = excluded.description,
			specifications = excluded.specifications,
			images = excluded.images,
			featured = excluded.featured,
			in_stock = excluded.in_stock,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, item := range items {
		if _, ok := domain.ParseCategory(string(item.Category)); !ok {
			return fmt.Errorf("%w: product %s has unknown category %q", domain.ErrInvalidRequest, item.ID, item.Category)
		}

		specs, err := json.Marshal(nonNilSpecs(item.Specifications))
		if err != nil {
			return fmt.Errorf("encoding specifications for %s: %w", item.ID, err)
		}
		images, err := json.Marshal(nonNilImages(item.Images))
		if err != nil {
			return fmt.Errorf("encoding images for %s: %w", item.ID, err)
		}

		created := item.CreatedAt
		if created.IsZero() {
			created = now
		}

		if _, err := stmt.ExecContext(ctx,
			item.ID, item.Name, string(item.Category), item.Price, item.Description,
			string(specs), string(images), boolToInt(item.Featured), boolToInt(item.InStock),
			created.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("upserting product %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of products stored
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.CatalogItem, error) {
	var (
		item                 domain.CatalogItem
		category             string
		specs, images        string
		featured, inStock    int
		createdAt, updatedAt string
	)
	if err := row.Scan(&item.ID, &item.Name, &category, &item.Price, &item.Description,
		&specs, &images, &featured, &inStock, &createdAt, &updatedAt); err != nil {
		return domain.CatalogItem{}, err
	}

	item.Category = domain.Category(category)
	item.Featured = featured != 0
	item.InStock = inStock != 0

	if err := json.Unmarshal([]byte(specs), &item.Specifications); err != nil {
		return domain.CatalogItem{}, fmt.Errorf("decoding specifications for %s: %w", item.ID, err)
	}
	if err := json.Unmarshal([]byte(images), &item.Images); err != nil {
		return domain.CatalogItem{}, fmt.Errorf("decoding images for %s: %w", item.ID, err)
	}

	// Timestamps are written by Upsert; a parse failure leaves the zero time.
	item.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	item.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return item, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNilSpecs(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nonNilImages(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
