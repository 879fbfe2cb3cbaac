package querybuilder

import (
	"fmt"
	"strings"
)

type InsertBuilder struct {
	table     string
	columns   []string
	rows      [][]any
	conflict  []string
	updates   []string
	setExprs  []assignment
	doNothing bool
	returning []string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// OnConflict names the unique key the upsert targets.
func (b *InsertBuilder) OnConflict(columns ...string) *InsertBuilder {
	b.conflict = append([]string(nil), columns...)
	return b
}

// DoUpdate overwrites the listed columns from EXCLUDED. With no columns every
// inserted column outside the conflict key is overwritten.
func (b *InsertBuilder) DoUpdate(columns ...string) *InsertBuilder {
	b.updates = append([]string(nil), columns...)
	b.doNothing = false
	return b
}

// DoUpdateSet adds a custom assignment to the DO UPDATE clause, e.g.
// ("logo", "COALESCE(NULLIF(EXCLUDED.logo, ''), teams.logo)").
func (b *InsertBuilder) DoUpdateSet(column, expr string) *InsertBuilder {
	b.setExprs = append(b.setExprs, assignment{column: column, expr: expr})
	b.doNothing = false
	return b
}

func (b *InsertBuilder) DoNothing() *InsertBuilder {
	b.updates = nil
	b.setExprs = nil
	b.doNothing = true
	return b
}

func (b *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	b.returning = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	var buf strings.Builder
	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(") VALUES ")

	args := make([]any, 0, len(b.rows)*len(b.columns))
	argIndex := 1
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				buf.WriteString(", ")
			}
			writeArg(&buf, &args, &argIndex, value)
		}
		buf.WriteString(")")
	}

	if err := b.appendConflict(&buf); err != nil {
		return "", nil, err
	}
	if len(b.returning) > 0 {
		buf.WriteString(" RETURNING ")
		buf.WriteString(strings.Join(b.returning, ", "))
	}

	return buf.String(), args, nil
}

func (b *InsertBuilder) appendConflict(buf *strings.Builder) error {
	if len(b.conflict) == 0 {
		if len(b.updates) > 0 || len(b.setExprs) > 0 || b.doNothing {
			return fmt.Errorf("conflict target is required for upsert")
		}
		return nil
	}

	buf.WriteString(" ON CONFLICT (")
	buf.WriteString(strings.Join(b.conflict, ", "))
	buf.WriteString(")")
	if b.doNothing {
		buf.WriteString(" DO NOTHING")
		return nil
	}

	updates := b.updates
	if len(updates) == 0 {
		skip := make(map[string]struct{}, len(b.conflict)+len(b.setExprs))
		for _, c := range b.conflict {
			skip[c] = struct{}{}
		}
		for _, a := range b.setExprs {
			skip[a.column] = struct{}{}
		}
		for _, c := range b.columns {
			if _, ok := skip[c]; !ok {
				updates = append(updates, c)
			}
		}
	}
	if len(updates) == 0 && len(b.setExprs) == 0 {
		buf.WriteString(" DO NOTHING")
		return nil
	}

	buf.WriteString(" DO UPDATE SET ")
	written := 0
	for _, c := range updates {
		if written > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(c)
		buf.WriteString(" = EXCLUDED.")
		buf.WriteString(c)
		written++
	}
	for _, a := range b.setExprs {
		if written > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(a.column)
		buf.WriteString(" = ")
		buf.WriteString(a.expr)
		written++
	}
	return nil
}

type assignment struct {
	column string
	expr   string
}
