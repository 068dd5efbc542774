package dt

import "strings"

// PatchKind tells the serializer whether a Patch's Value is a property
// value or a node's contents (spec §4.6 "Patches").
type PatchKind int

const (
	PatchProp PatchKind = iota
	PatchNode
)

// Patch overwrites or inserts one path during Marshal (spec §4.6
// "Patches", §4.7 traversal-helper path grammar `/a/b/c`). For PatchProp,
// Value is the raw property bytes ([]byte) to emit verbatim. For PatchNode,
// Value is a generic struct/map value (the same shapes Marshal's top level
// accepts) describing the inserted subtree's contents; it is driven through
// the same reflective encodeNode walk — and the same string table — as
// every other node, rather than being pre-encoded out of band (spec §6
// `Patch::new(path, value, kind)`, §8 "Patch insertion"; a patch's payload
// shares the document's single string table exactly the way
// original_source/src/ser/patch.rs's `data: &'se dyn Serialize` is driven
// through the enclosing serializer).
type Patch struct {
	Path  string
	Kind  PatchKind
	Value any
}

// activePatch is a Patch paired with its path split into components. How
// much of that path the ancestor chain has matched so far is not stored:
// it is the depth at which the list is consulted, since a patch only stays
// in the list passed down while its leading components keep matching.
// Unlike the original's shared Cell<usize> bookkeeping, matching here
// is expressed as plain value-passing recursion: encodeNode narrows the
// active list by one path component per level instead of mutating shared
// state (see DESIGN.md).
type activePatch struct {
	patch    Patch
	segments []string
}

func splitPath(path string) []string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func newActivePatches(patches []Patch) []activePatch {
	out := make([]activePatch, 0, len(patches))
	for _, p := range patches {
		out = append(out, activePatch{patch: p, segments: splitPath(p.Path)})
	}
	return out
}

// matchField narrows active against one more path component (spec §4.6
// "test whether the next path component equals the current field key").
// passDown carries forward the patches whose path continues past this
// component, for the recursive call if key turns out to name a node.
// firing is non-nil when exactly one patch's full path ends at key; two
// simultaneous firing matches is the "programming error" spec calls out.
func matchField(active []activePatch, depth int, key string) (passDown []activePatch, consumed bool, firing *Patch, err error) {
	for _, ap := range active {
		if depth >= len(ap.segments) || ap.segments[depth] != key {
			continue
		}
		consumed = true
		if depth+1 == len(ap.segments) {
			if firing != nil {
				return nil, false, nil, newErr(ErrKindPathConflict, 0, nil)
			}
			p := ap.patch
			firing = &p
			continue
		}
		passDown = append(passDown, ap)
	}
	return passDown, consumed, firing, nil
}

// insertions returns the patches whose path is exactly one component
// longer than depth and whose leading component at this depth was never
// consumed by a natural field during this node's loop (spec §4.6
// "Insertions are patches whose matched-depth equals the current depth but
// whose full depth is one greater").
func insertions(active []activePatch, depth int, consumedKeys map[string]bool) []activePatch {
	var out []activePatch
	for _, ap := range active {
		if depth >= len(ap.segments) {
			continue
		}
		key := ap.segments[depth]
		if consumedKeys[key] || depth+1 != len(ap.segments) {
			continue
		}
		out = append(out, ap)
	}
	return out
}
