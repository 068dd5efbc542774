package dt

import "strings"

// Flatten walks n's subtree through the generic Node view and materializes
// it as a map[string]any suitable for Marshal: properties become copied
// []byte values, child nodes without a unit address become nested maps,
// and children with a unit address are gathered by base name, in file
// order, into one []NodeSeqEntry per base (a lone "x@0" included, and
// whether or not the siblings are contiguous). It exists for
// round-tripping an arbitrary decoded document (e.g. the dtbdump reencode
// command) without requiring a caller-defined struct shape; the core
// decode/encode path (Unmarshal/Marshal with Patch) does not use it.
func Flatten(n Node) (map[string]any, error) {
	out := map[string]any{}

	props := n.Props()
	for {
		name, val, ok, err := props.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		cp := make([]byte, len(val))
		copy(cp, val)
		out[name] = cp
	}

	groupOrder := make([]string, 0)
	groups := map[string][]NodeSeqEntry{}

	children := n.Nodes()
	for {
		child, ok, err := children.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		name, err := child.Name()
		if err != nil {
			return nil, err
		}
		flat, err := Flatten(child)
		if err != nil {
			return nil, err
		}
		base, unit, grouped := strings.Cut(name, "@")
		if !grouped {
			out[name] = flat
			continue
		}
		if _, seen := groups[base]; !seen {
			groupOrder = append(groupOrder, base)
		}
		groups[base] = append(groups[base], NodeSeqEntry{Unit: unit, Value: flat})
	}
	for _, base := range groupOrder {
		out[base] = groups[base]
	}
	return out, nil
}
