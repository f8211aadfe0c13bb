package relation

import "fmt"

// DefaultFallback is substituted for any projected field whose value is
// missing, null or malformed, unless the field declares its own fallback.
const DefaultFallback = "N/A"

// Cardinality says whether a join edge yields at most one related row or many.
type Cardinality int

const (
	One Cardinality = iota
	Many
)

func (c Cardinality) String() string {
	if c == Many {
		return "many"
	}
	return "one"
}

// Direction is the sort direction of an Order clause.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order sorts the root rows by a single column.
type Order struct {
	Column    string
	Direction Direction
}

// Filter is an additional exact-match predicate on a root column.
type Filter struct {
	Column string
	Value  any
}

// Field is one projected value. Name is the key presentation code sees;
// Column is the backend column it is read from and defaults to Name.
type Field struct {
	Name   string
	Column string
	// Fallback replaces a missing value. Nil means DefaultFallback.
	Fallback any
	// DisplayDate formats the value as a short locale date.
	DisplayDate bool
}

func (f Field) column() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

func (f Field) fallback() any {
	if f.Fallback != nil {
		return f.Fallback
	}
	return DefaultFallback
}

// Edge is a foreign-key relationship projected inline with its parent row.
//
// For a One edge the parent's LocalColumn references the related table's
// RemoteColumn (default "id"). For a Many edge the related table's
// RemoteColumn references the parent's LocalColumn (default "id").
//
// Nested One edges are lifted into this edge's record, so client -> user ->
// email yields client.email. Nested Many edges stay a list under their Name.
type Edge struct {
	Name         string
	Table        string
	Cardinality  Cardinality
	LocalColumn  string
	RemoteColumn string
	Fields       []Field
	Edges        []Edge
}

func (e Edge) localColumn() string {
	if e.LocalColumn != "" {
		return e.LocalColumn
	}
	if e.Cardinality == One {
		return e.Name + "_id"
	}
	return "id"
}

func (e Edge) remoteColumn() string {
	if e.RemoteColumn != "" {
		return e.RemoteColumn
	}
	return "id"
}

// Spec describes one scoped read: a root table, the column that scopes it to
// the caller, its scalar projections and its join edges.
type Spec struct {
	Table string
	// ScopeField is the root column compared with the caller's id. Empty means
	// the read is not scoped (admin screens).
	ScopeField string
	Fields     []Field
	Edges      []Edge
	Filters    []Filter
	Order      *Order
}

// WithFilter returns a copy of s with an extra exact-match predicate.
func (s Spec) WithFilter(column string, value any) Spec {
	filters := make([]Filter, 0, len(s.Filters)+1)
	filters = append(filters, s.Filters...)
	s.Filters = append(filters, Filter{Column: column, Value: value})
	return s
}

// Validate reports view keys declared twice within one record, counting the
// fields lifted in from nested to-one edges.
func (s Spec) Validate() error {
	seen := make(map[string]bool, len(s.Fields)+len(s.Edges))
	for _, f := range s.Fields {
		if err := claim(seen, s.Table, f.Name); err != nil {
			return err
		}
	}
	for _, e := range s.Edges {
		if err := claim(seen, s.Table, e.Name); err != nil {
			return err
		}
		if err := e.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (e Edge) validate() error {
	return claimLifted(map[string]bool{}, e.Name, e.Fields, e.Edges)
}

func claimLifted(seen map[string]bool, record string, fields []Field, edges []Edge) error {
	for _, f := range fields {
		if err := claim(seen, record, f.Name); err != nil {
			return err
		}
	}
	for _, e := range edges {
		if e.Cardinality == Many {
			if err := claim(seen, record, e.Name); err != nil {
				return err
			}
			if err := e.validate(); err != nil {
				return err
			}
			continue
		}
		if err := claimLifted(seen, record, e.Fields, e.Edges); err != nil {
			return err
		}
	}
	return nil
}

func claim(seen map[string]bool, record, key string) error {
	if seen[key] {
		return fmt.Errorf("relation: key %q declared twice in %s record", key, record)
	}
	seen[key] = true
	return nil
}
