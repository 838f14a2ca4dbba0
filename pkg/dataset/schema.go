// Package dataset provides read-only, snapshot-consistent access to the
// airport dataset. Table and column identifiers come from a fixed allow-list
// and are rendered into fixed statement templates; literals are always bound.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration reports an invalid identifier, predicate, constant, or
// dataset location. It is always fatal for a profiling run.
var ErrConfiguration = errors.New("configuration error")

// Table is an allow-listed table of the airport dataset.
type Table string

const (
	Airports Table = "Airports"
	Runways  Table = "Runways"
)

// Kind classifies which operations a column supports.
type Kind int

const (
	Numeric Kind = iota + 1
	Categorical
	Key
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Key:
		return "key"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column names a column of an allow-listed table.
type Column struct {
	Table Table
	Name  string
}

var (
	AirportElevation = Column{Airports, "Elevation"}
	AirportLatitude  = Column{Airports, "Latitude"}
	AirportLongitude = Column{Airports, "Longtitude"} // upstream schema spelling
	RunwayAirportID  = Column{Runways, "AirportID"}
	RunwayLength     = Column{Runways, "Length"}
	RunwayWidth      = Column{Runways, "Width"}
	RunwaySurface    = Column{Runways, "Surface"}
)

// schema is the allow-list. Nothing outside it is ever rendered into SQL.
var schema = map[Table]map[string]Kind{
	Airports: {
		"Elevation":  Numeric,
		"Latitude":   Numeric,
		"Longtitude": Numeric,
	},
	Runways: {
		"AirportID": Key,
		"Length":    Numeric,
		"Width":     Numeric,
		"Surface":   Categorical,
	},
}

func (c Column) String() string {
	return string(c.Table) + "." + c.Name
}

// ParseTable resolves a table name case-insensitively against the allow-list.
func ParseTable(name string) (Table, error) {
	for t := range schema {
		if strings.EqualFold(string(t), name) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown table %q", ErrConfiguration, name)
}

// ParseColumn resolves a column name of table case-insensitively.
func ParseColumn(table Table, name string) (Column, error) {
	cols, ok := schema[table]
	if !ok {
		return Column{}, fmt.Errorf("%w: unknown table %q", ErrConfiguration, table)
	}
	for col := range cols {
		if strings.EqualFold(col, name) {
			return Column{Table: table, Name: col}, nil
		}
	}
	return Column{}, fmt.Errorf("%w: unknown column %q in table %s", ErrConfiguration, name, table)
}

// Kind returns the column's kind, or ErrConfiguration if the column is not
// allow-listed.
func (c Column) Kind() (Kind, error) {
	cols, ok := schema[c.Table]
	if !ok {
		return 0, fmt.Errorf("%w: unknown table %q", ErrConfiguration, c.Table)
	}
	kind, ok := cols[c.Name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown column %q in table %s", ErrConfiguration, c.Name, c.Table)
	}
	return kind, nil
}

func requireKind(c Column, want Kind) error {
	kind, err := c.Kind()
	if err != nil {
		return err
	}
	if kind != want {
		return fmt.Errorf("%w: column %s is %s, need %s", ErrConfiguration, c, kind, want)
	}
	return nil
}
