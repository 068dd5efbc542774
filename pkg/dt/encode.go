package dt

import (
	"encoding/binary"
	"reflect"
	"sort"

	"github.com/dtbkit/dtbkit/internal/blockfmt"
)

// EncodeOptions configures Marshal's header fields (spec §4.6 "Output
// buffer layout"). It is a plain struct rather than functional options.
type EncodeOptions struct {
	// BootCpuidPhys is written verbatim into the header's boot_cpuid_phys
	// word; it has no bearing on structure-block content.
	BootCpuidPhys uint32
}

var typeNodeSeqEntrySlice = reflect.TypeOf([]NodeSeqEntry{})

// Marshal renders v (a struct or a map with string keys, addressed by
// value or pointer) as a
// complete DTB, applying patches per spec §4.6. The original's pass-1
// sizing walk exists to learn the string table's size before the
// structure-block writer can be positioned; a Go implementation builds
// both blocks as independently growing slices and only concatenates them
// at the end, so a single walk suffices (see DESIGN.md) — property
// name-offsets are resolved into the table on first use and are
// positionally stable once assigned, exactly as the two-pass design
// produces.
func Marshal(v any, patches []Patch, opts EncodeOptions) ([]byte, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return nil, newErr(ErrKindCustom, 0, nil)
	}

	w := &structWriter{}
	st := newStringTable()
	active := newActivePatches(patches)
	if err := encodeNode(w, st, rv, "", active, 0, true); err != nil {
		return nil, err
	}

	rsvmap := make([]byte, blockfmt.RsvMapEntrySize)

	h := blockfmt.Header{
		Magic:           blockfmt.Magic,
		Version:         17,
		LastCompVersion: 16,
		BootCpuidPhys:   opts.BootCpuidPhys,
		OffMemRsvmap:    blockfmt.HeaderSize,
		OffDtStruct:     uint32(blockfmt.HeaderSize + len(rsvmap)),
		SizeDtStruct:    uint32(len(w.buf)),
	}
	h.OffDtStrings = h.OffDtStruct + h.SizeDtStruct
	h.SizeDtStrings = uint32(len(st.buf))
	h.TotalSize = h.OffDtStrings + h.SizeDtStrings

	out := make([]byte, 0, h.TotalSize)
	out = append(out, blockfmt.EncodeHeader(h)...)
	out = append(out, rsvmap...)
	out = append(out, w.buf...)
	out = append(out, st.buf...)
	return out, nil
}

// stringTable is the serializer's find-or-insert string table (spec §4.6
// "the sink maintains a find-or-insert over the string table").
type stringTable struct {
	buf     []byte
	offsets map[string]int
}

func newStringTable() *stringTable { return &stringTable{offsets: map[string]int{}} }

func (st *stringTable) intern(name string) uint32 {
	if off, ok := st.offsets[name]; ok {
		return uint32(off)
	}
	off := len(st.buf)
	st.buf = append(st.buf, name...)
	st.buf = append(st.buf, 0)
	st.offsets[name] = off
	return uint32(off)
}

// structWriter accumulates structure-block bytes, with in-place backpatch
// support for PROP headers (spec §4.6 pass 2).
type structWriter struct {
	buf []byte
}

func (w *structWriter) u32(v uint32)   { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *structWriter) bytes(b []byte) { w.buf = append(w.buf, b...) }
func (w *structWriter) cstring(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}
func (w *structWriter) align4() {
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0)
	}
}

// encodeNode emits one BEGIN_NODE..END_NODE run for v (spec §4.6 pass 2).
// active holds the patches whose path still has a remaining component at
// this depth; isRoot additionally emits the terminal END token.
func encodeNode(w *structWriter, st *stringTable, v reflect.Value, name string, active []activePatch, depth int, isRoot bool) error {
	w.u32(blockfmt.TokenBeginNode)
	w.cstring(name)
	w.align4()

	consumed := map[string]bool{}

	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			key, _, skip := parseTag(f)
			if skip {
				continue
			}
			fv := v.Field(i)
			if err := encodeField(w, st, key, fv, active, depth, consumed); err != nil {
				return err
			}
		}
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			keys = append(keys, iter.Key().String())
		}
		sort.Strings(keys)
		for _, key := range keys {
			fv := v.MapIndex(reflect.ValueOf(key))
			if err := encodeField(w, st, key, fv, active, depth, consumed); err != nil {
				return err
			}
		}
	}

	for _, ap := range insertions(active, depth, consumed) {
		if err := emitPatch(w, st, ap.segments[depth], ap.patch); err != nil {
			return err
		}
	}

	w.u32(blockfmt.TokenEndNode)
	if isRoot {
		w.u32(blockfmt.TokenEnd)
	}
	return nil
}

func encodeField(w *structWriter, st *stringTable, key string, fv reflect.Value, active []activePatch, depth int, consumed map[string]bool) error {
	if !fv.IsValid() {
		return nil
	}
	if fv.Kind() == reflect.Interface {
		fv = fv.Elem()
	}
	if fv.Kind() == reflect.Bool && !fv.Bool() {
		return nil // absent boolean flag: omit entirely
	}
	if fv.Kind() == reflect.Pointer && fv.IsNil() {
		return nil // option: none, omit entirely
	}

	if fv.Type() == typeNodeSeqEntrySlice {
		return encodeGroup(w, st, key, fv, active, depth, consumed)
	}

	passDown, wasConsumed, firing, err := matchField(active, depth, key)
	if err != nil {
		return err
	}
	if wasConsumed {
		consumed[key] = true
	}
	if firing != nil {
		return emitPatch(w, st, key, *firing)
	}

	if isNodeShaped(fv.Type()) {
		for fv.Kind() == reflect.Pointer {
			fv = fv.Elem()
		}
		return encodeNode(w, st, fv, key, passDown, depth+1, false)
	}
	return emitProp(w, st, key, fv)
}

func encodeGroup(w *structWriter, st *stringTable, base string, fv reflect.Value, active []activePatch, depth int, consumed map[string]bool) error {
	entries := fv.Interface().([]NodeSeqEntry)
	for _, entry := range entries {
		name := base
		if entry.Unit != "" {
			name = base + "@" + entry.Unit
		}
		passDown, wasConsumed, firing, err := matchField(active, depth, name)
		if err != nil {
			return err
		}
		if wasConsumed {
			consumed[name] = true
		}
		if firing != nil {
			if err := emitPatch(w, st, name, *firing); err != nil {
				return err
			}
			continue
		}
		ev := reflect.ValueOf(entry.Value)
		for ev.Kind() == reflect.Pointer {
			ev = ev.Elem()
		}
		if err := encodeNode(w, st, ev, name, passDown, depth+1, false); err != nil {
			return err
		}
	}
	return nil
}

// isNodeShaped reports whether t is serialized as a sub-node rather than a
// property (spec §4.6, §4.4's inverse).
func isNodeShaped(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case typeReg, typeMatrix, typeStrSeq, typeNode, typeNodeSeq:
		return false
	}
	return t.Kind() == reflect.Struct || t.Kind() == reflect.Map
}

// emitProp writes one speculation-free PROP entry: header, value, padding
// (spec §4.6 "Primitive encodings"). Go's static field types make the
// header-overwrite-with-NOP trick unnecessary here — the prop/node shape of
// every field is known before encoding begins (see DESIGN.md).
func emitProp(w *structWriter, st *stringTable, name string, fv reflect.Value) error {
	start := len(w.buf)
	w.u32(blockfmt.TokenProp)
	w.u32(0) // length placeholder
	w.u32(0) // name-offset placeholder
	valStart := len(w.buf)

	switch {
	case fv.Kind() == reflect.Bool:
		// true: empty value, already the common case reached from here
	case fv.Kind() == reflect.Uint32:
		w.u32(uint32(fv.Uint()))
	case fv.Kind() == reflect.String:
		w.bytes([]byte(fv.String()))
		w.buf = append(w.buf, 0)
	case fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() == reflect.Uint8:
		w.bytes(fv.Bytes())
	case fv.Type() == typeStrSeq:
		w.bytes(fv.Interface().(StrSeq).data)
	case fv.Type() == typeReg:
		w.bytes(fv.Interface().(Reg).data)
	case fv.Type() == typeMatrix:
		w.bytes(fv.Interface().(Matrix).data)
	}

	length := len(w.buf) - valStart
	w.align4()
	binary.BigEndian.PutUint32(w.buf[start+4:start+8], uint32(length))
	binary.BigEndian.PutUint32(w.buf[start+8:start+12], st.intern(name))
	return nil
}

// emitPatch writes a patch in place of a field's natural value (spec §4.6
// "the patch fires in place of the natural value"). A PatchNode's Value is
// driven through encodeNode against the same stringTable as the rest of the
// document — splicing pre-encoded bytes from an independent call would
// carry PROP name-offsets resolved against that call's own from-scratch
// table, which would land on the wrong names once read back against this
// document's table.
func emitPatch(w *structWriter, st *stringTable, name string, p Patch) error {
	switch p.Kind {
	case PatchNode:
		v := reflect.ValueOf(p.Value)
		for v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		return encodeNode(w, st, v, name, nil, 0, false)
	default:
		data, ok := p.Value.([]byte)
		if !ok {
			return newErr(ErrKindCustom, 0, nil)
		}
		start := len(w.buf)
		w.u32(blockfmt.TokenProp)
		w.u32(uint32(len(data)))
		w.u32(0)
		w.bytes(data)
		w.align4()
		binary.BigEndian.PutUint32(w.buf[start+8:start+12], st.intern(name))
		return nil
	}
}
