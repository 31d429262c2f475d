package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiumachile/billpro/internal/db"
	"github.com/xiumachile/billpro/internal/logger"
	"github.com/xiumachile/billpro/internal/migrations"
	"github.com/xiumachile/billpro/internal/report"
	"github.com/xiumachile/billpro/internal/seed"
)

func seededDB(t *testing.T, now time.Time) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "report-test.db")
	database, err := db.Open(path)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, migrations.Up(database.DB))
	_, err = seed.Run(database, seed.Config{Demo: true, Now: now, Location: now.Location()})
	require.NoError(t, err)
	return path
}

func TestRun(t *testing.T) {
	now := time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)
	path := seededDB(t, now)
	log := logger.NewWithWriter(logger.Config{Level: "error"}, &bytes.Buffer{})

	var out bytes.Buffer
	err := run(context.Background(), options{dbPath: path, preset: "semana", timezone: "UTC"}, log, &out, now)
	require.NoError(t, err)

	var res report.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 5, res.OrderCount)
	assert.Equal(t, "69500", res.NetSales.String())
	assert.Equal(t, "2024-03-09", res.From)

	out.Reset()
	err = run(context.Background(), options{dbPath: path, preset: "semana", seller: 3, timezone: "UTC"}, log, &out, now)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 1, res.OrderCount)
	assert.Equal(t, "12000", res.NetSales.String())
}

func TestRun_Errors(t *testing.T) {
	log := logger.NewWithWriter(logger.Config{Level: "error"}, &bytes.Buffer{})
	now := time.Now()

	err := run(context.Background(), options{preset: "siempre"}, log, &bytes.Buffer{}, now)
	assert.ErrorIs(t, err, report.ErrUnknownPreset)

	err = run(context.Background(), options{timezone: "Mars/Olympus"}, log, &bytes.Buffer{}, now)
	assert.Error(t, err)
}

func TestOptionsDateRange(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	rng, err := options{}.dateRange(now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", rng.From.Format("2006-01-02"))

	rng, err = options{from: "2024-03-01"}.dateRange(now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, rng.From, rng.To)

	_, err = options{from: "2024-03-10", to: "2024-03-01"}.dateRange(now, time.UTC)
	assert.Error(t, err)
}
