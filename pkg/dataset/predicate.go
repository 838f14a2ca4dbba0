// Row filters restricted to column, comparison operator, and integer literal
// Parses the textual form "Length > 0" and rejects anything else
package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a comparison operator allowed in a predicate.
type Op string

const (
	Eq Op = "="
	Ne Op = "!="
	Gt Op = ">"
	Ge Op = ">="
	Lt Op = "<"
	Le Op = "<="
)

var validOps = map[Op]bool{Eq: true, Ne: true, Gt: true, Ge: true, Lt: true, Le: true}

// Predicate restricts matching rows to those where Column Op Value holds.
type Predicate struct {
	Column Column
	Op     Op
	Value  int64
}

// ParsePredicate parses "<column> <op> <integer>" against table's allow-list.
// The column may be qualified as "<table>.<column>".
func ParsePredicate(table Table, s string) (Predicate, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return Predicate{}, fmt.Errorf("%w: predicate %q must be \"<column> <op> <integer>\"", ErrConfiguration, s)
	}
	name := fields[0]
	if qualifier, rest, ok := strings.Cut(name, "."); ok {
		t, err := ParseTable(qualifier)
		if err != nil {
			return Predicate{}, err
		}
		if t != table {
			return Predicate{}, fmt.Errorf("%w: predicate column %s does not belong to table %s", ErrConfiguration, name, table)
		}
		name = rest
	}
	col, err := ParseColumn(table, name)
	if err != nil {
		return Predicate{}, err
	}
	op := Op(fields[1])
	if !validOps[op] {
		return Predicate{}, fmt.Errorf("%w: unsupported operator %q in predicate %q", ErrConfiguration, fields[1], s)
	}
	v, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Predicate{}, fmt.Errorf("%w: predicate %q: literal must be an integer", ErrConfiguration, s)
	}
	p := Predicate{Column: col, Op: op, Value: v}
	if err := p.validate(table); err != nil {
		return Predicate{}, err
	}
	return p, nil
}

func (p Predicate) validate(table Table) error {
	if p.Column.Table != table {
		return fmt.Errorf("%w: predicate column %s does not belong to table %s", ErrConfiguration, p.Column, table)
	}
	if err := requireKind(p.Column, Numeric); err != nil {
		return err
	}
	if !validOps[p.Op] {
		return fmt.Errorf("%w: unsupported operator %q", ErrConfiguration, p.Op)
	}
	return nil
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %d", p.Column.Name, p.Op, p.Value)
}

// Query selects the non-null values of Column, optionally filtered by Where.
type Query struct {
	Column Column
	Where  *Predicate
}

func (q Query) String() string {
	if q.Where == nil {
		return q.Column.String()
	}
	return q.Column.String() + " where " + q.Where.String()
}

func (q Query) validate() error {
	if err := requireKind(q.Column, Numeric); err != nil {
		return err
	}
	if q.Where != nil {
		return q.Where.validate(q.Column.Table)
	}
	return nil
}
