// Package datasettest builds throwaway SQLite datasets with the airport schema
// for tests. The schema is applied with golang-migrate from embedded migrations.
package datasettest

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // sqlite:// migration target
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Airport is a fixture airport row. A nil Elevation is stored as NULL.
type Airport struct {
	ID        int64
	ICAO      string
	Latitude  float64
	Longitude float64
	Elevation *int64
}

// Runway is a fixture runway row. Nil fields are stored as NULL.
type Runway struct {
	AirportID int64
	Length    *int64
	Width     *int64
	Surface   *string
}

// Fixture is the content of a test dataset.
type Fixture struct {
	Airports []Airport
	Runways  []Runway
}

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }

// Str returns a pointer to s.
func Str(s string) *string { return &s }

// Migrate applies the airport schema to the SQLite file at path.
func Migrate(path string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+path)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close() //nolint:errcheck // best-effort close after migration
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Build writes f to a new SQLite file in a temp dir and returns its path.
func Build(t testing.TB, f Fixture) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airports.db3")
	require.NoError(t, Migrate(path))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck // test fixture

	tx, err := db.Begin()
	require.NoError(t, err)
	for _, a := range f.Airports {
		_, err := tx.Exec(`INSERT INTO Airports (ID, Name, ICAO, Latitude, Longtitude, Elevation) VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, "Airport "+a.ICAO, a.ICAO, a.Latitude, a.Longitude, a.Elevation)
		require.NoError(t, err)
	}
	for i, r := range f.Runways {
		_, err := tx.Exec(`INSERT INTO Runways (ID, AirportID, Ident, Length, Width, Surface) VALUES (?, ?, ?, ?, ?, ?)`,
			i+1, r.AirportID, fmt.Sprintf("%02d", i%36+1), r.Length, r.Width, r.Surface)
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())
	return path
}

// Sample is a small dataset used across packages: four airports with
// elevations 0, 100, 500, 2000 ft and seven runways spread 1/1/2/3.
func Sample() Fixture {
	return Fixture{
		Airports: []Airport{
			{ID: 1, ICAO: "AAAA", Latitude: -33.9, Longitude: 151.2, Elevation: Int(0)},
			{ID: 2, ICAO: "BBBB", Latitude: 51.5, Longitude: -0.4, Elevation: Int(100)},
			{ID: 3, ICAO: "CCCC", Latitude: 40.6, Longitude: -73.8, Elevation: Int(500)},
			{ID: 4, ICAO: "DDDD", Latitude: 39.9, Longitude: -104.7, Elevation: Int(2000)},
		},
		Runways: []Runway{
			{AirportID: 1, Length: Int(3000), Width: Int(60), Surface: Str("GRE")},
			{AirportID: 2, Length: Int(5000), Width: Int(100), Surface: Str("ASP")},
			{AirportID: 3, Length: Int(8000), Width: Int(150), Surface: Str("ASP")},
			{AirportID: 3, Length: Int(9000), Width: Int(150), Surface: Str("ASP")},
			{AirportID: 4, Length: Int(12000), Width: Int(200), Surface: Str("ASP")},
			{AirportID: 4, Length: Int(0), Width: Int(0), Surface: nil},
			{AirportID: 4, Length: Int(4000), Width: Int(75), Surface: Str("WAT")},
		},
	}
}
