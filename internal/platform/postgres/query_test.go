package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhere_BuildsPositionalConditions(t *testing.T) {
	var w Where
	w.Eq("status", "operational")
	w.Eq("area", "")
	w.Since("sampled_at", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	w.Before("sampled_at", time.Time{})
	w.Search("p-10", "tag", "name")

	assert.Equal(t, " WHERE status = $1 AND sampled_at >= $2 AND (tag ILIKE $3 OR name ILIKE $3)", w.SQL())
	require.Len(t, w.Args(), 3)
	assert.Equal(t, "%p-10%", w.Args()[2])

	page := w.Page(5000, -1)
	assert.Equal(t, " LIMIT $4 OFFSET $5", page)
	assert.Equal(t, MaxLimit, w.Args()[3])
	assert.Equal(t, 0, w.Args()[4])
}

func TestWhere_EmptyRendersNothing(t *testing.T) {
	var w Where
	assert.Empty(t, w.SQL())
	assert.Equal(t, " LIMIT $1 OFFSET $2", w.Page(0, 0))
	assert.Equal(t, DefaultLimit, w.Args()[0])
}

func TestSearch_EscapesLikeWildcards(t *testing.T) {
	var w Where
	w.Search(`50%_a\b`, "name")
	assert.Equal(t, `%50\%\_a\\b%`, w.Args()[0])
}

func TestOrderBy(t *testing.T) {
	allowed := map[string]string{"sampled_at": "sampled_at", "point": "sample_point"}
	assert.Equal(t, " ORDER BY sampled_at ASC", OrderBy("sampled_at", allowed, "created_at DESC"))
	assert.Equal(t, " ORDER BY sample_point DESC", OrderBy("-point", allowed, "created_at DESC"))
	assert.Equal(t, " ORDER BY created_at DESC", OrderBy("id; DROP TABLE x", allowed, "created_at DESC"))
	assert.Equal(t, " ORDER BY created_at DESC", OrderBy("", allowed, "created_at DESC"))
}

func TestMigrations_Embedded(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, "0001_init", migrations[0].Version)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS water_readings")
}
