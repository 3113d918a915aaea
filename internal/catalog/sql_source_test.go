package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLSource(t *testing.T) *SQLSource {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	src, err := NewSQLSource("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })

	migrations, err := filepath.Abs(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	require.NoError(t, src.RunMigrations(migrations))

	return src
}

func TestSQLSource_LoadSeededCatalog(t *testing.T) {
	src := setupSQLSource(t)

	c, err := src.Load(context.Background())
	require.NoError(t, err)

	// Rows come back ordered by (group_name, position), so merch precedes
	// music and items keep their seeded order within each group.
	require.Len(t, c.Groups, 2)
	assert.Equal(t, "merch", c.Groups[0].Name)
	assert.Equal(t, "music", c.Groups[1].Name)
	assert.Equal(t, "T-Shirt", c.Groups[0].Items[0].Name)
	assert.Equal(t, "Coffee Cup", c.Groups[0].Items[1].Name)

	idx := c.Index()
	assert.Equal(t, int64(1200), idx["1"].Price)
	assert.Equal(t, int64(699), idx["6"].Price)
}

func TestSQLSource_EachLoadSeesCurrentStorage(t *testing.T) {
	src := setupSQLSource(t)
	ctx := context.Background()

	first, err := src.Load(ctx)
	require.NoError(t, err)

	_, err = src.db.ExecContext(ctx, `UPDATE catalog_items SET price = 2500 WHERE id = '1'`)
	require.NoError(t, err)

	second, err := src.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1200), first.Index()["1"].Price)
	assert.Equal(t, int64(2500), second.Index()["1"].Price)
}

func TestSQLSource_MigrationsAreIdempotent(t *testing.T) {
	src := setupSQLSource(t)

	migrations, err := filepath.Abs(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	require.NoError(t, src.RunMigrations(migrations))

	c, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())
}
