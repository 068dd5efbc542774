package dt

import (
	"encoding/binary"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/dtbkit/dtbkit/internal/cursor"
)

// cellConfig is the live #address-cells/#size-cells register configuration
// threaded through the map/struct entry loop (spec §4.4 step 3, §8). The
// devicetree convention is address-cells=2, size-cells=1 when a node never
// declares either.
type cellConfig struct {
	Address uint32
	Size    uint32
}

func defaultCellConfig() cellConfig { return cellConfig{Address: 2, Size: 1} }

// Unmarshal decodes the document's root node into v, which must be a
// non-nil pointer to a struct or a map[string]any. Every [MODULE] shape of
// spec §4.4's "Requested shape" table is reachable through v's field types:
// bool, uint32, string, []byte, pointer (option), dt.StrSeq, dt.Reg,
// dt.Matrix, dt.NodeSeq, dt.Node, nested struct/map, and slices of any of
// the node-shaped types for sibling groups.
//
// After the root is fully consumed, the structure-block cursor must sit on
// the terminal END token; if residual tokens remain, Unmarshal returns an
// *Error with Kind ErrKindNotComplete (spec §4.4 "Termination requirement").
func Unmarshal(d *Doc, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return newErr(ErrKindCustom, 0, nil)
	}
	dec := &decoder{doc: d}
	final, err := dec.decodeBody(d.Root(), rv.Elem(), defaultCellConfig())
	if err != nil {
		return err
	}
	if !final.IsComplete(d.bufPtr()) {
		return newErr(ErrKindNotComplete, final.FileOffset(d.bufPtr()), nil)
	}
	return nil
}

type decoder struct {
	doc *Doc
}

// decodeValue is the entry point used by Node.Decode and NodeSeqItem.Decode
// to re-enter the typed deserializer below the top level (spec §4.5
// "deserialize::<T>()").
func (dec *decoder) decodeValue(body cursor.Body, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return newErr(ErrKindCustom, 0, nil)
	}
	_, err := dec.decodeBody(body, rv.Elem(), defaultCellConfig())
	return err
}

// fieldSpec records where a devicetree property/node name lands in a target
// struct, plus any decode options carried in its tag.
type fieldSpec struct {
	index   int
	matrixN int
}

// parseTag splits a `dt:"name[,matrixN]"` tag. An absent tag or an empty
// name part falls back to the lower-cased Go field name; a "-" tag reports
// skip=true so the field is neither decoded nor encoded.
func parseTag(field reflect.StructField) (name string, matrixN int, skip bool) {
	tag, ok := field.Tag.Lookup("dt")
	if !ok {
		return strings.ToLower(field.Name), 0, false
	}
	if tag == "-" {
		return "", 0, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = strings.ToLower(field.Name)
	}
	if len(parts) > 1 {
		matrixN, _ = strconv.Atoi(parts[1])
	}
	return name, matrixN, false
}

// structFields builds the known-field-name table for a struct type (spec
// §4.4 step 5, "structs with a known field list"). It returns nil for
// non-struct target types (map decode has no known field list).
func structFields(t reflect.Type) map[string]fieldSpec {
	if t.Kind() != reflect.Struct {
		return nil
	}
	out := make(map[string]fieldSpec, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		name, matrixN, skip := parseTag(f)
		if skip {
			continue
		}
		out[name] = fieldSpec{index: i, matrixN: matrixN}
	}
	return out
}

// decodeBody runs the map/struct entry loop of spec §4.4 over body, filling
// target (a struct or map[string]any), and returns the cursor positioned
// just past the node's END_NODE (or, at the root, the terminal END).
func (dec *decoder) decodeBody(body cursor.Body, target reflect.Value, cells cellConfig) (cursor.Body, error) {
	buf := dec.doc.bufPtr()

	var fields map[string]fieldSpec
	isMap := target.Kind() == reflect.Map
	if isMap {
		if target.IsNil() {
			target.Set(reflect.MakeMap(target.Type()))
		}
	} else {
		fields = structFields(target.Type())
	}

	childCells := cells
	for {
		class, title, prop, err := body.MoveOn(buf)
		if err != nil {
			return cursor.Body{}, wrapCursorErr(err)
		}

		switch class {
		case cursor.ClassEnd:
			// MoveOn looked past any NOPs without moving body; step over
			// them so the END_NODE itself is what gets consumed.
			for !body.IsComplete(buf) {
				next, dir, err := body.MoveNext(buf)
				if err != nil {
					return cursor.Body{}, wrapCursorErr(err)
				}
				if dir == cursor.MoveOut {
					return next, nil
				}
				body = next
			}
			return body.SkipToken(), nil

		case cursor.ClassTitle:
			name, _, err := title.Split(buf)
			if err != nil {
				return cursor.Body{}, wrapCursorErr(err)
			}
			base := cursor.SiblingBase(name)
			if base != name {
				mc, err := title.TakeGroup(buf, base)
				if err != nil {
					return cursor.Body{}, wrapCursorErr(err)
				}
				if spec, ok := fields[base]; ok {
					if err := dec.assignGroup(mc, base, target.Field(spec.index), childCells); err != nil {
						return cursor.Body{}, err
					}
				} else if isMap {
					target.SetMapIndex(reflect.ValueOf(base), reflect.ValueOf(newNodeSeq(dec.doc, mc, base)))
				}
				body = mc.SkipPast
				continue
			}
			mc, err := title.TakeNode(buf)
			if err != nil {
				return cursor.Body{}, wrapCursorErr(err)
			}
			if spec, ok := fields[name]; ok {
				if err := dec.assignNode(mc, title, target.Field(spec.index), childCells); err != nil {
					return cursor.Body{}, err
				}
			} else if isMap {
				target.SetMapIndex(reflect.ValueOf(name), reflect.ValueOf(nodeAt(dec.doc, title)))
			}
			body = mc.SkipPast
			continue

		case cursor.ClassProp:
			name, next, err := prop.Name(buf)
			if err != nil {
				return cursor.Body{}, wrapCursorErr(err)
			}
			if name == "#address-cells" || name == "#size-cells" {
				val, err := readU32Prop(buf, prop)
				if err != nil {
					return cursor.Body{}, err
				}
				if name == "#address-cells" {
					childCells.Address = val
				} else {
					childCells.Size = val
				}
			}
			if spec, ok := fields[name]; ok {
				if err := dec.assignProp(prop, target.Field(spec.index), cells, spec.matrixN); err != nil {
					return cursor.Body{}, err
				}
			} else if isMap {
				data, err := prop.Data(buf)
				if err != nil {
					return cursor.Body{}, wrapCursorErr(err)
				}
				target.SetMapIndex(reflect.ValueOf(name), reflect.ValueOf(data))
			}
			body = next
			continue
		}
	}
}

func readU32Prop(buf *cursor.Buf, p cursor.Prop) (uint32, error) {
	data, err := p.Data(buf)
	if err != nil {
		return 0, wrapCursorErr(err)
	}
	if len(data) != 4 {
		return 0, newErr(ErrKindInvalidSerdeTypeLength, p.FileOffset(buf), nil)
	}
	return binary.BigEndian.Uint32(data), nil
}

var (
	typeNode    = reflect.TypeOf(Node{})
	typeNodeSeq = reflect.TypeOf(NodeSeq{})
	typeStrSeq  = reflect.TypeOf(StrSeq{})
	typeReg     = reflect.TypeOf(Reg{})
	typeMatrix  = reflect.TypeOf(Matrix{})
)

// assignNode handles a single-node map/struct entry (spec §4.4 step 2, the
// "otherwise" branch).
func (dec *decoder) assignNode(mc cursor.MultiNodeCursor, title cursor.Title, field reflect.Value, cells cellConfig) error {
	t := field.Type()
	switch {
	case t == typeNode:
		field.Set(reflect.ValueOf(nodeAt(dec.doc, title)))
		return nil
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		field.Set(reflect.New(t.Elem()))
		_, err := dec.decodeBody(mc.Data, field.Elem(), cells)
		return err
	case t.Kind() == reflect.Struct || t.Kind() == reflect.Map:
		if t.Kind() == reflect.Map && field.IsNil() {
			field.Set(reflect.MakeMap(t))
		}
		_, err := dec.decodeBody(mc.Data, field, cells)
		return err
	default:
		return nil // unsupported field type: advanced over, not surfaced
	}
}

// assignGroup handles a sibling-group map/struct entry (spec §4.4 step 2,
// the "@"-bearing branch, and §4.5 "NodeSeq").
func (dec *decoder) assignGroup(mc cursor.MultiNodeCursor, base string, field reflect.Value, cells cellConfig) error {
	t := field.Type()
	switch {
	case t == typeNodeSeq:
		field.Set(reflect.ValueOf(newNodeSeq(dec.doc, mc, base)))
		return nil
	case t.Kind() == reflect.Slice:
		seq := newNodeSeq(dec.doc, mc, base)
		it := seq.Iter()
		elemT := t.Elem()
		out := reflect.MakeSlice(t, 0, mc.Count)
		for {
			item, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			elem := reflect.New(elemT).Elem()
			if err := dec.assignNodeSeqElem(item, elem, cells); err != nil {
				return err
			}
			out = reflect.Append(out, elem)
		}
		field.Set(out)
		return nil
	default:
		return nil
	}
}

func (dec *decoder) assignNodeSeqElem(item NodeSeqItem, elem reflect.Value, cells cellConfig) error {
	t := elem.Type()
	if t.Kind() == reflect.Pointer {
		elem.Set(reflect.New(t.Elem()))
		_, err := dec.decodeBody(item.body, elem.Elem(), cells)
		return err
	}
	_, err := dec.decodeBody(item.body, elem, cells)
	return err
}

// assignProp handles a property-shaped map/struct entry across every
// primitive and built-in-view shape of spec §4.4's table.
func (dec *decoder) assignProp(p cursor.Prop, field reflect.Value, cells cellConfig, matrixN int) error {
	buf := dec.doc.bufPtr()
	data, err := p.Data(buf)
	if err != nil {
		return wrapCursorErr(err)
	}

	t := field.Type()
	switch {
	case t.Kind() == reflect.Bool:
		if len(data) != 0 {
			return newErr(ErrKindInvalidSerdeTypeLength, p.FileOffset(buf), nil)
		}
		field.SetBool(true)
		return nil

	case t.Kind() == reflect.Uint32:
		if len(data) != 4 {
			return newErr(ErrKindInvalidSerdeTypeLength, p.FileOffset(buf), nil)
		}
		field.SetUint(uint64(binary.BigEndian.Uint32(data)))
		return nil

	case t.Kind() == reflect.String:
		if !utf8.Valid(data) {
			return newErr(ErrKindUTF8, p.FileOffset(buf), nil)
		}
		field.SetString(borrowString(data))
		return nil

	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		field.SetBytes(data)
		return nil

	case t.Kind() == reflect.Pointer:
		if len(data) == 0 {
			return nil // option: none
		}
		field.Set(reflect.New(t.Elem()))
		return dec.assignProp(p, field.Elem(), cells, matrixN)

	case t == typeStrSeq:
		field.Set(reflect.ValueOf(NewStrSeq(data)))
		return nil

	case t == typeReg:
		reg, err := NewReg(data, cells.Address, cells.Size)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(reg))
		return nil

	case t == typeMatrix:
		m, err := NewMatrix(data, matrixN)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(m))
		return nil

	default:
		return nil // unsupported field type: advanced over, not surfaced
	}
}

// borrowString builds a string that aliases data's backing array instead of
// copying it, matching the "borrowed string" shape of spec §4.4. Safe here
// because *Doc's documented discipline forbids mutating the buffer while
// any decoded view is alive.
func borrowString(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return unsafe.String(&data[0], len(data))
}
