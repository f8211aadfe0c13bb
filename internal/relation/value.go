package relation

// EdgeKind tags the shape an edge value arrived in.
type EdgeKind int

const (
	EdgeAbsent EdgeKind = iota
	EdgeSingle
	EdgeList
)

// EdgeValue is the tagged form of a raw edge: absent, a single object or a
// list of objects. Items holds nil for list elements that were not objects.
type EdgeValue struct {
	Kind  EdgeKind
	Items []map[string]any
}

// ClassifyEdge tags a raw edge value. Anything that is neither an object nor
// a list is treated as absent.
func ClassifyEdge(v any) EdgeValue {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return EdgeValue{Kind: EdgeAbsent}
		}
		return EdgeValue{Kind: EdgeSingle, Items: []map[string]any{t}}
	case []map[string]any:
		return EdgeValue{Kind: EdgeList, Items: t}
	case []any:
		items := make([]map[string]any, len(t))
		for i, el := range t {
			if obj, ok := el.(map[string]any); ok {
				items[i] = obj
			}
		}
		return EdgeValue{Kind: EdgeList, Items: items}
	default:
		return EdgeValue{Kind: EdgeAbsent}
	}
}

// One resolves the value of a to-one edge. A list yields its first element;
// an empty list, a nil element or an absent value yields false.
func (v EdgeValue) One() (map[string]any, bool) {
	if v.Kind == EdgeAbsent || len(v.Items) == 0 || v.Items[0] == nil {
		return nil, false
	}
	return v.Items[0], true
}

// List resolves the value of a to-many edge. A single object is a list of one.
func (v EdgeValue) List() []map[string]any {
	if v.Kind == EdgeAbsent {
		return nil
	}
	return v.Items
}
