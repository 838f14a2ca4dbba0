// Statement templates for every query the dataset layer can issue
// Templates only ever receive allow-listed identifiers and placeholders
package dataset

import (
	"bytes"
	"fmt"
	"text/template"
)

var (
	stmtTmpl = template.New("stmt")

	stmtTmpls = map[string]string{
		"rowCount":  `SELECT COUNT(*) FROM {{.Table}}`,
		"count":     `SELECT COUNT({{.Column}}) FROM {{.Table}} WHERE {{.Column}} IS NOT NULL{{.Filter}}`,
		"aggregate": `SELECT COUNT({{.Column}}), MIN({{.Column}}), MAX({{.Column}}), AVG({{.Column}}) FROM {{.Table}} WHERE {{.Column}} IS NOT NULL{{.Filter}}`,
		"valueAt":   `SELECT {{.Column}} FROM {{.Table}} WHERE {{.Column}} IS NOT NULL{{.Filter}} ORDER BY {{.Column}} LIMIT 1 OFFSET {{.Offset}}`,
		"groupBy":   `SELECT {{.Column}}, COUNT(*) FROM {{.Table}} GROUP BY {{.Column}} ORDER BY {{.Column}} NULLS FIRST`,
		"perKey":    `SELECT per_key.n, COUNT(*) FROM (SELECT {{.Column}}, COUNT(*) AS n FROM {{.Table}} WHERE {{.Column}} IS NOT NULL GROUP BY {{.Column}}) AS per_key GROUP BY per_key.n ORDER BY per_key.n`,
	}
)

func init() {
	for name, tmpl := range stmtTmpls {
		template.Must(stmtTmpl.New(name).Parse(tmpl))
	}
}

type stmtParams struct {
	Table  Table
	Column string
	Filter string
	Offset string
}

// statement renders a named template for q and returns the SQL with its
// bind arguments. extra arguments are appended after the filter literal.
func (d dialect) statement(name string, q Query, extra ...any) (string, []any, error) {
	if err := q.validate(); err != nil {
		return "", nil, err
	}
	p := stmtParams{Table: q.Column.Table, Column: q.Column.Name}
	var args []any
	if q.Where != nil {
		args = append(args, q.Where.Value)
		p.Filter = fmt.Sprintf(" AND %s %s %s", q.Where.Column.Name, q.Where.Op, d.placeholder(len(args)))
	}
	if len(extra) > 0 {
		args = append(args, extra...)
		p.Offset = d.placeholder(len(args))
	}
	sql, err := render(name, p)
	return sql, args, err
}

func render(name string, p stmtParams) (string, error) {
	var b bytes.Buffer
	if err := stmtTmpl.ExecuteTemplate(&b, name, p); err != nil {
		return "", fmt.Errorf("rendering %s statement: %w", name, err)
	}
	return b.String(), nil
}
