package dt

import (
	"encoding/binary"

	"github.com/dtbkit/dtbkit/internal/cursor"
)

// Node is the generic, lazy view of spec §4.5: a cursor sitting on a
// BEGIN_NODE token, exposing direct properties and children in file order
// without collapsing unit-address groups. All iteration here borrows the
// backing buffer; nothing is copied until a caller decodes a primitive.
type Node struct {
	doc   *Doc
	title cursor.Title
}

// nodeAt wraps a title cursor into a Node view bound to doc.
func nodeAt(doc *Doc, title cursor.Title) Node { return Node{doc: doc, title: title} }

// Name returns the node's full name (e.g. "uart@10000000").
func (n Node) Name() (string, error) {
	name, _, err := n.title.Split(n.doc.bufPtr())
	if err != nil {
		return "", wrapCursorErr(err)
	}
	return name, nil
}

func (n Node) body() (cursor.Body, error) {
	_, b, err := n.title.Split(n.doc.bufPtr())
	if err != nil {
		return cursor.Body{}, wrapCursorErr(err)
	}
	return b, nil
}

// PropIter walks the direct properties of a Node in file order, skipping
// over (not descending into) child nodes.
type PropIter struct {
	doc *Doc
	cur cursor.Body
	err error
}

// Props returns an iterator over this node's direct properties.
func (n Node) Props() *PropIter {
	body, err := n.body()
	return &PropIter{doc: n.doc, cur: body, err: err}
}

// Next returns the next property's name and raw value, or ok=false once the
// node's END_NODE is reached.
func (it *PropIter) Next() (name string, value []byte, ok bool, err error) {
	if it.err != nil {
		return "", nil, false, it.err
	}
	buf := it.doc.bufPtr()
	for {
		class, title, prop, err := it.cur.MoveOn(buf)
		if err != nil {
			it.err = wrapCursorErr(err)
			return "", nil, false, it.err
		}
		switch class {
		case cursor.ClassEnd:
			return "", nil, false, nil
		case cursor.ClassTitle:
			mn, err := title.TakeNode(buf)
			if err != nil {
				it.err = wrapCursorErr(err)
				return "", nil, false, it.err
			}
			it.cur = mn.SkipPast
			continue
		case cursor.ClassProp:
			propName, next, err := prop.Name(buf)
			if err != nil {
				it.err = wrapCursorErr(err)
				return "", nil, false, it.err
			}
			val, err := prop.Data(buf)
			if err != nil {
				it.err = wrapCursorErr(err)
				return "", nil, false, it.err
			}
			it.cur = next
			return propName, val, true, nil
		}
	}
}

// NodeIter walks the direct children of a Node in file order; unlike
// Unmarshal's map loop, groups sharing a base name are NOT collapsed here
// (spec §4.5 "Generic node").
type NodeIter struct {
	doc *Doc
	cur cursor.Body
	err error
}

// Nodes returns an iterator over this node's direct children.
func (n Node) Nodes() *NodeIter {
	body, err := n.body()
	return &NodeIter{doc: n.doc, cur: body, err: err}
}

// Next returns the next child Node, or ok=false once END_NODE is reached.
func (it *NodeIter) Next() (Node, bool, error) {
	if it.err != nil {
		return Node{}, false, it.err
	}
	buf := it.doc.bufPtr()
	for {
		class, title, prop, err := it.cur.MoveOn(buf)
		if err != nil {
			it.err = wrapCursorErr(err)
			return Node{}, false, it.err
		}
		switch class {
		case cursor.ClassEnd:
			return Node{}, false, nil
		case cursor.ClassProp:
			_, next, err := prop.Name(buf)
			if err != nil {
				it.err = wrapCursorErr(err)
				return Node{}, false, it.err
			}
			it.cur = next
			continue
		case cursor.ClassTitle:
			mn, err := title.TakeNode(buf)
			if err != nil {
				it.err = wrapCursorErr(err)
				return Node{}, false, it.err
			}
			it.cur = mn.SkipPast
			return nodeAt(it.doc, title), true, nil
		}
	}
}

// GetProp returns the raw value of the named direct property, or
// ErrKindNotFound if absent.
func (n Node) GetProp(name string) ([]byte, error) {
	it := n.Props()
	for {
		propName, val, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, newErr(ErrKindNotFound, 0, nil)
		}
		if propName == name {
			return val, nil
		}
	}
}

// Decode re-enters the typed deserializer at this node's contents, driving
// v the same way Unmarshal drives the top-level value (spec §4.5
// "deserialize::<T>()").
func (n Node) Decode(v any) error {
	body, err := n.body()
	if err != nil {
		return err
	}
	dec := &decoder{doc: n.doc}
	return dec.decodeValue(body, v)
}

// ---------------------------------------------------------------------------
// StrSeq: a property value that is a sequence of NUL-terminated strings.
// ---------------------------------------------------------------------------

// StrSeq is the zero-copy lazy view over a property whose value is a
// sequence of concatenated NUL-terminated strings (spec §4.5 "StrSeq").
type StrSeq struct {
	data []byte
}

// NewStrSeq wraps a raw property value as a StrSeq.
func NewStrSeq(data []byte) StrSeq { return StrSeq{data: data} }

// StrSeqIter yields the borrowed substrings of a StrSeq in forward order.
type StrSeqIter struct {
	data []byte
	idx  int
}

// Iter returns a fresh iterator over s.
func (s StrSeq) Iter() *StrSeqIter { return &StrSeqIter{data: s.data} }

// Next returns the next string, or ok=false when exhausted.
func (it *StrSeqIter) Next() (string, bool) {
	if it.idx >= len(it.data) {
		return "", false
	}
	start := it.idx
	for it.idx < len(it.data) && it.data[it.idx] != 0 {
		it.idx++
	}
	s := borrowString(it.data[start:it.idx])
	if it.idx < len(it.data) {
		it.idx++
	}
	return s, true
}

// ---------------------------------------------------------------------------
// Reg: an address/size tuple sequence (spec §4.5 "Reg").
// ---------------------------------------------------------------------------

// Reg is the zero-copy lazy view over a "reg"-shaped property: N ×
// (addressCells+sizeCells) big-endian 32-bit cells (spec §4.5, §8 "Register
// arithmetic").
type Reg struct {
	data         []byte
	addressCells int
	sizeCells    int
}

// NewReg wraps data as a Reg view configured with the live
// #address-cells/#size-cells values in scope for the containing node (spec
// §4.4 "update the live register-config").
func NewReg(data []byte, addressCells, sizeCells uint32) (Reg, error) {
	if addressCells < 1 {
		return Reg{}, newErr(ErrKindCustom, 0, nil)
	}
	return Reg{data: data, addressCells: int(addressCells), sizeCells: int(sizeCells)}, nil
}

// stride is the byte length of one (base,length) pair.
func (r Reg) stride() int { return 4 * (r.addressCells + r.sizeCells) }

// Len reports the number of (base,length) pairs, per spec §8 "Register
// arithmetic": value_len / (4 * (a+s)).
func (r Reg) Len() int {
	st := r.stride()
	if st == 0 {
		return 0
	}
	return len(r.data) / st
}

// RegEntry is one decoded (base, length) pair.
type RegEntry struct {
	Base   uint64
	Length uint64
}

// RegIter yields RegEntry values in forward order.
type RegIter struct {
	r   Reg
	idx int
}

// Iter returns a fresh iterator over r.
func (r Reg) Iter() *RegIter { return &RegIter{r: r} }

// Next returns the next (base, length) pair, or ok=false when exhausted.
func (it *RegIter) Next() (RegEntry, bool) {
	if it.idx >= it.r.Len() {
		return RegEntry{}, false
	}
	off := it.idx * it.r.stride()
	base := assembleCells(it.r.data[off:], it.r.addressCells)
	length := assembleCells(it.r.data[off+4*it.r.addressCells:], it.r.sizeCells)
	it.idx++
	return RegEntry{Base: base, Length: length}, true
}

func assembleCells(data []byte, cells int) uint64 {
	var v uint64
	for c := 0; c < cells; c++ {
		v = (v << 32) | uint64(binary.BigEndian.Uint32(data[c*4:]))
	}
	return v
}

// ---------------------------------------------------------------------------
// Matrix: fixed-stride rows of N big-endian 32-bit words (spec §4.5 "Matrix<N>").
// ---------------------------------------------------------------------------

// Matrix is the zero-copy lazy view over a property whose value is rows of
// N 32-bit big-endian words (spec §4.5 "Matrix<N>").
type Matrix struct {
	data []byte
	n    int
}

// NewMatrix wraps data as a Matrix of n-word rows. It rejects a value whose
// length is not a multiple of 4n (spec §4.5).
func NewMatrix(data []byte, n int) (Matrix, error) {
	if n <= 0 || len(data)%(4*n) != 0 {
		return Matrix{}, newErr(ErrKindInvalidSerdeTypeLength, 0, nil)
	}
	return Matrix{data: data, n: n}, nil
}

// Rows reports the number of n-word rows.
func (m Matrix) Rows() int { return len(m.data) / (4 * m.n) }

// Row decodes the i'th row into dst (len(dst) must be >= N); it does not
// allocate.
func (m Matrix) Row(i int, dst []uint32) {
	off := i * 4 * m.n
	for c := 0; c < m.n; c++ {
		dst[c] = binary.BigEndian.Uint32(m.data[off+c*4:])
	}
}

// ---------------------------------------------------------------------------
// NodeSeq: a contiguous run of sibling nodes sharing a base name (spec §4.5
// "NodeSeq").
// ---------------------------------------------------------------------------

// NodeSeq holds the group descriptor produced by cursor.Title.TakeGroup
// (spec §4.5 "NodeSeq").
type NodeSeq struct {
	doc  *Doc
	mc   cursor.MultiNodeCursor
	base string
}

// newNodeSeq wraps a group descriptor produced by cursor.Title.TakeGroup.
func newNodeSeq(doc *Doc, mc cursor.MultiNodeCursor, base string) NodeSeq {
	return NodeSeq{doc: doc, mc: mc, base: base}
}

// Len reports the group's sibling count.
func (ns NodeSeq) Len() int { return ns.mc.Count }

// Base returns the shared name prefix before '@' for this group.
func (ns NodeSeq) Base() string { return ns.base }

// NodeSeqItem is one member of a NodeSeq: its unit-address suffix (the part
// of its name after '@', or "" if none) and a body cursor positioned to
// deserialize its contents.
type NodeSeqItem struct {
	Suffix string
	doc    *Doc
	body   cursor.Body
}

// Decode deserializes this sibling's contents into v.
func (it NodeSeqItem) Decode(v any) error {
	dec := &decoder{doc: it.doc}
	return dec.decodeValue(it.body, v)
}

// NodeSeqIter walks the members of a NodeSeq in order.
type NodeSeqIter struct {
	doc       *Doc
	cur       cursor.Title
	remaining int
	err       error
}

// Iter returns a fresh iterator over ns.
func (ns NodeSeq) Iter() *NodeSeqIter {
	return &NodeSeqIter{doc: ns.doc, cur: ns.mc.Start, remaining: ns.mc.Count}
}

// NodeSeqEntry is the encode-side counterpart of NodeSeqItem: a sibling to
// emit under a group field, named base+"@"+Unit (or bare base if Unit is
// empty), with Value holding its node contents (a struct or *struct).
type NodeSeqEntry struct {
	Unit  string
	Value any
}

// Next returns the next group member, or ok=false when exhausted.
func (it *NodeSeqIter) Next() (NodeSeqItem, bool, error) {
	if it.err != nil {
		return NodeSeqItem{}, false, it.err
	}
	if it.remaining == 0 {
		return NodeSeqItem{}, false, nil
	}
	buf := it.doc.bufPtr()
	name, body, err := it.cur.Split(buf)
	if err != nil {
		it.err = wrapCursorErr(err)
		return NodeSeqItem{}, false, it.err
	}
	item := NodeSeqItem{Suffix: cursor.SiblingUnit(name), doc: it.doc, body: body}
	it.remaining--
	if it.remaining > 0 {
		skip, err := body.Escape(buf)
		if err != nil {
			it.err = wrapCursorErr(err)
			return NodeSeqItem{}, false, it.err
		}
		class, title, _, err := skip.MoveOn(buf)
		if err != nil {
			it.err = wrapCursorErr(err)
			return NodeSeqItem{}, false, it.err
		}
		if class != cursor.ClassTitle {
			it.err = newErr(ErrKindExpectedStructBeginEnd, skip.FileOffset(buf), nil)
			return NodeSeqItem{}, false, it.err
		}
		it.cur = title
	}
	return item, true, nil
}
