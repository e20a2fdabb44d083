package graph

import (
	"time"

	"github.com/elcontad0r/legislative-intelligence/pkg/types"
)

// FlattenProps converts an arbitrarily nested property map into the
// flat, scalar-valued map graph databases require. Nested maps collapse
// into {parent}_{child} keys, dates render as ISO-8601 strings, nil
// values are dropped, and lists of scalars pass through unchanged.
//
// The input map is never modified.
func FlattenProps(props map[string]any) map[string]any {
	flat := make(map[string]any, len(props))
	flattenInto(flat, "", props)
	return flat
}

func flattenInto(flat map[string]any, prefix string, props map[string]any) {
	for key, value := range props {
		name := key
		if prefix != "" {
			name = prefix + "_" + key
		}
		if value == nil {
			continue
		}
		switch typed := value.(type) {
		case map[string]any:
			flattenInto(flat, name, typed)
		case time.Time:
			flat[name] = typed.UTC().Format(time.RFC3339)
		case types.Date:
			flat[name] = typed.ISO()
		case *types.Date:
			if typed != nil {
				flat[name] = typed.ISO()
			}
		default:
			flat[name] = value
		}
	}
}

// flatProps is the full property map written for a node: its flattened
// props plus the id key, so the id survives as a queryable property in
// addition to being the merge key.
func (n Node) flatProps() map[string]any {
	flat := FlattenProps(n.Props)
	flat["id"] = n.ID
	return flat
}
