package relation

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// queryBuilder renders a Spec into a single statement that returns one JSON
// object per root row, with every edge resolved by a correlated subquery.
type queryBuilder struct {
	aliases int
	args    []any
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (b *queryBuilder) nextAlias() string {
	alias := fmt.Sprintf("t%d", b.aliases)
	b.aliases++
	return alias
}

func (b *queryBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// object renders json_build_object(...) over the fields and edges of one
// table aliased as alias.
func (b *queryBuilder) object(alias string, fields []Field, edges []Edge) string {
	pairs := make([]string, 0, len(fields)+len(edges))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		col := f.column()
		if seen[col] {
			continue
		}
		seen[col] = true
		pairs = append(pairs, fmt.Sprintf("'%s', %s.%s", escapeLiteral(col), alias, quote(col)))
	}
	for _, e := range edges {
		pairs = append(pairs, fmt.Sprintf("'%s', %s", escapeLiteral(e.Name), b.edge(alias, e)))
	}
	return "json_build_object(" + strings.Join(pairs, ", ") + ")"
}

func (b *queryBuilder) edge(parent string, e Edge) string {
	alias := b.nextAlias()
	obj := b.object(alias, e.Fields, e.Edges)

	if e.Cardinality == Many {
		return fmt.Sprintf("(SELECT COALESCE(json_agg(%s ORDER BY %s.%s), '[]'::json) FROM %s %s WHERE %s.%s = %s.%s)",
			obj, alias, quote("id"),
			quote(e.Table), alias,
			alias, quote(e.remoteColumn()), parent, quote(e.localColumn()))
	}

	return fmt.Sprintf("(SELECT %s FROM %s %s WHERE %s.%s = %s.%s LIMIT 1)",
		obj,
		quote(e.Table), alias,
		alias, quote(e.remoteColumn()), parent, quote(e.localColumn()))
}

func (b *queryBuilder) where(root string, spec Spec, scopeID any) string {
	var conditions []string
	if spec.ScopeField != "" {
		conditions = append(conditions, fmt.Sprintf("%s.%s = %s", root, quote(spec.ScopeField), b.bind(scopeID)))
	}
	for _, f := range spec.Filters {
		conditions = append(conditions, fmt.Sprintf("%s.%s = %s", root, quote(f.Column), b.bind(f.Value)))
	}
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

// buildSelect returns the row-fetching statement for spec and its arguments.
func buildSelect(spec Spec, scopeID any) (string, []any) {
	b := &queryBuilder{}
	root := b.nextAlias()
	obj := b.object(root, spec.Fields, spec.Edges)

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s %s", obj, quote(spec.Table), root)
	sb.WriteString(b.where(root, spec, scopeID))

	if spec.Order != nil && spec.Order.Column != "" {
		dir := Asc
		if spec.Order.Direction == Desc {
			dir = Desc
		}
		fmt.Fprintf(&sb, " ORDER BY %s.%s %s", root, quote(spec.Order.Column), dir)
	}

	return sb.String(), b.args
}

// buildCount returns a COUNT(*) statement honouring the scope and filters of spec.
func buildCount(spec Spec, scopeID any) (string, []any) {
	b := &queryBuilder{}
	root := b.nextAlias()
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", quote(spec.Table), root) + b.where(root, spec, scopeID)
	return query, b.args
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
