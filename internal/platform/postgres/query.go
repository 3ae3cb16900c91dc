package postgres

import (
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Where accumulates filter conditions with positional arguments.
type Where struct {
	conds []string
	args  []any
}

// Arg registers a value and returns its placeholder.
func (w *Where) Arg(value any) string {
	w.args = append(w.args, value)
	return "$" + strconv.Itoa(len(w.args))
}

// Eq adds "column = value" when value is not empty.
func (w *Where) Eq(column, value string) {
	if value == "" {
		return
	}
	w.conds = append(w.conds, column+" = "+w.Arg(value))
}

// EqBool adds "column = value" when value is set.
func (w *Where) EqBool(column string, value *bool) {
	if value == nil {
		return
	}
	w.conds = append(w.conds, column+" = "+w.Arg(*value))
}

// Since adds "column >= from" when from is set.
func (w *Where) Since(column string, from time.Time) {
	if from.IsZero() {
		return
	}
	w.conds = append(w.conds, column+" >= "+w.Arg(from.UTC()))
}

// Before adds "column < to" when to is set.
func (w *Where) Before(column string, to time.Time) {
	if to.IsZero() {
		return
	}
	w.conds = append(w.conds, column+" < "+w.Arg(to.UTC()))
}

// Search adds a case-insensitive substring match over columns.
func (w *Where) Search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return
	}
	placeholder := w.Arg("%" + escapeLike(term) + "%")
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, column+" ILIKE "+placeholder)
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

// Raw adds an arbitrary condition.
func (w *Where) Raw(cond string) {
	if cond != "" {
		w.conds = append(w.conds, cond)
	}
}

// SQL renders the WHERE clause, or an empty string.
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Args returns the accumulated arguments.
func (w *Where) Args() []any {
	return w.args
}

// OrderBy resolves a sort expression against a whitelist of columns.
// A leading "-" sorts descending. Unknown columns fall back to fallback.
func OrderBy(sort string, allowed map[string]string, fallback string) string {
	sort = strings.TrimSpace(sort)
	desc := strings.HasPrefix(sort, "-")
	key := strings.TrimPrefix(sort, "-")
	column, ok := allowed[key]
	if !ok {
		return " ORDER BY " + fallback
	}
	if desc {
		return " ORDER BY " + column + " DESC"
	}
	return " ORDER BY " + column + " ASC"
}

// Page renders LIMIT/OFFSET, clamping the limit.
func (w *Where) Page(limit, offset int) string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return " LIMIT " + w.Arg(limit) + " OFFSET " + w.Arg(offset)
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
