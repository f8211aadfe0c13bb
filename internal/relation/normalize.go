package relation

import (
	"encoding/json"
	"log/slog"
	"time"
)

// DefaultDateLayout renders display dates the way an en-US short date does.
const DefaultDateLayout = "1/2/2006"

// Record is a normalized view record. Every declared field is present and
// none holds nil.
type Record = map[string]any

// Options tune how display dates are rendered.
type Options struct {
	DateLayout string
	Location   *time.Location
}

// Normalize maps each raw row to exactly one Record, in input order, using
// the default options. It never panics and never drops a row.
func Normalize(rows []RawRow, spec Spec) []Record {
	return NormalizeWith(rows, spec, Options{})
}

// NormalizeWith is Normalize with explicit options.
func NormalizeWith(rows []RawRow, spec Spec, opts Options) []Record {
	if opts.DateLayout == "" {
		opts.DateLayout = DefaultDateLayout
	}
	n := normalizer{opts: opts}

	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = n.row(i, row, spec)
	}
	return out
}

type normalizer struct {
	opts Options
}

func (n normalizer) row(i int, raw RawRow, spec Spec) (rec Record) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("normalization defect", "table", spec.Table, "row", i, "panic", r)
			rec = n.root(nil, spec)
		}
	}()
	return n.root(raw, spec)
}

func (n normalizer) root(raw map[string]any, spec Spec) Record {
	rec := make(Record, len(spec.Fields)+len(spec.Edges))
	for _, f := range spec.Fields {
		rec[f.Name] = n.field(raw, f)
	}
	for _, e := range spec.Edges {
		v := ClassifyEdge(lookup(raw, e.Name))
		if e.Cardinality == Many {
			rec[e.Name] = n.list(v, e)
			continue
		}
		obj, _ := v.One()
		sub := Record{}
		n.project(sub, obj, e.Fields, e.Edges)
		rec[e.Name] = sub
	}
	return rec
}

// project writes fields of src into rec. Nested to-one edges are resolved
// and lifted into rec; nested to-many edges become lists under their name.
// A nested to-one edge missing from src is read from src itself, so a record
// that is already flat keeps its lifted values. A nil src yields fallbacks
// for everything. A key already in rec is never overwritten.
func (n normalizer) project(rec Record, src map[string]any, fields []Field, edges []Edge) {
	for _, f := range fields {
		if n.taken(rec, f.Name) {
			continue
		}
		rec[f.Name] = n.field(src, f)
	}
	for _, e := range edges {
		v := ClassifyEdge(lookup(src, e.Name))
		if e.Cardinality == Many {
			if n.taken(rec, e.Name) {
				continue
			}
			rec[e.Name] = n.list(v, e)
			continue
		}
		obj, ok := v.One()
		if !ok && v.Kind == EdgeAbsent {
			obj = src
		}
		n.project(rec, obj, e.Fields, e.Edges)
	}
}

func (n normalizer) taken(rec Record, key string) bool {
	if _, ok := rec[key]; !ok {
		return false
	}
	slog.Warn("relation: lifted key collides with an existing key", "key", key)
	return true
}

func (n normalizer) list(v EdgeValue, e Edge) []Record {
	items := v.List()
	out := make([]Record, len(items))
	for i, item := range items {
		sub := Record{}
		n.project(sub, item, e.Fields, e.Edges)
		out[i] = sub
	}
	return out
}

func (n normalizer) field(src map[string]any, f Field) any {
	v := lookup(src, f.column())
	if v == nil && f.Column != "" && f.Column != f.Name {
		// already normalized under its view name
		v = lookup(src, f.Name)
	}
	if v == nil {
		return f.fallback()
	}

	if f.DisplayDate {
		s, ok := formatDate(v, n.opts)
		if !ok {
			return f.fallback()
		}
		return s
	}

	switch v.(type) {
	case string, bool, json.Number, float64, float32, int, int32, int64, uint, uint32, uint64, time.Time:
		return v
	default:
		return f.fallback()
	}
}

func lookup(src map[string]any, key string) any {
	if src == nil {
		return nil
	}
	return src[key]
}
