package cursor

import (
	"encoding/binary"
	"unsafe"
)

// Body, Title, and Prop are the three cursor flavors of spec §4.3,
// encoding "what is at this position" the way the original Rust crate used
// phantom type parameters. Go has no phantom types, so each flavor is its
// own named type wrapping the same representation: a byte offset into the
// structure block, always a multiple of 4. Cursor equality is index
// equality and cursors are one machine word, as required by §4.3.
type (
	Body  struct{ idx int }
	Title struct{ idx int }
	Prop  struct{ idx int }
)

// RootBody is the cursor positioned at the very first structure-block word
// (the implicit root's BEGIN_NODE token).
var RootBody = Body{idx: 0}

// Idx exposes the raw byte offset, e.g. for building NodeSeq suffix keys or
// for diagnostics; it is not meaningful as a pointer.
func (b Body) Idx() int  { return b.idx }
func (t Title) Idx() int { return t.idx }
func (p Prop) Idx() int  { return p.idx }

// FileOffset returns the cursor's absolute offset within the original blob,
// for error reporting.
func (b Body) FileOffset(buf *Buf) int { return buf.StructBase + b.idx }

// Class discriminates what MoveOn found without advancing the cursor.
type Class int

const (
	ClassTitle Class = iota
	ClassProp
	ClassEnd
)

// MoveOn skips NOPs and classifies the token at b without consuming it
// (spec §4.3 "move_on(body) → {Title, Prop, End}").
func (b Body) MoveOn(buf *Buf) (Class, Title, Prop, error) {
	idx := b.idx
	for {
		tok, err := buf.word(idx)
		if err != nil {
			return 0, Title{}, Prop{}, err
		}
		switch tok {
		case tokenNop:
			idx += 4
			continue
		case tokenBeginNode:
			return ClassTitle, Title{idx: idx}, Prop{}, nil
		case tokenProp:
			return ClassProp, Title{}, Prop{idx: idx}, nil
		case tokenEndNode, tokenEnd:
			return ClassEnd, Title{}, Prop{}, nil
		default:
			return 0, Title{}, Prop{}, &Error{Err: ErrInvalidTag, Offset: buf.StructBase + idx}
		}
	}
}

// MoveDir reports which way MoveNext crossed a nesting boundary.
type MoveDir int

const (
	MoveIn MoveDir = iota
	MoveOut
	MoveNeither
)

// MoveNext advances b past exactly one token — a sub-node's BEGIN_NODE (and
// its name), an END_NODE, a PROP (header + value + padding), or a NOP — and
// reports which kind of token it was (spec §4.3 "move_next").
func (b Body) MoveNext(buf *Buf) (Body, MoveDir, error) {
	tok, err := buf.word(b.idx)
	if err != nil {
		return Body{}, 0, err
	}
	switch tok {
	case tokenBeginNode:
		_, next, err := readCString(buf, b.idx+4)
		if err != nil {
			return Body{}, 0, err
		}
		return Body{idx: next}, MoveIn, nil
	case tokenEndNode:
		return Body{idx: b.idx + 4}, MoveOut, nil
	case tokenProp:
		lenVal, err := buf.word(b.idx + 4)
		if err != nil {
			return Body{}, 0, err
		}
		valEnd := b.idx + 12 + int(lenVal)
		if valEnd > len(buf.Structure) {
			return Body{}, 0, &Error{Err: ErrSliceEOF, Offset: buf.StructBase + valEnd}
		}
		return Body{idx: align4(valEnd)}, MoveNeither, nil
	case tokenNop:
		return Body{idx: b.idx + 4}, MoveNeither, nil
	default:
		return Body{}, 0, &Error{Err: ErrInvalidTag, Offset: buf.StructBase + b.idx}
	}
}

// Escape repeatedly calls MoveNext, tracking nesting depth, and returns the
// cursor positioned just after the matching END_NODE at depth 0 (spec §4.3
// "escape(body)"). b must be positioned at (or before) a node's first
// child-level token, i.e. one level inside an already-consumed BEGIN_NODE.
func (b Body) Escape(buf *Buf) (Body, error) {
	cur := b
	depth := 1
	for {
		next, dir, err := cur.MoveNext(buf)
		if err != nil {
			return Body{}, err
		}
		cur = next
		switch dir {
		case MoveIn:
			depth++
		case MoveOut:
			depth--
			if depth == 0 {
				return cur, nil
			}
		}
	}
}

// Split slices the node name in place and returns the cursor positioned
// just after it (spec §4.3 "split(title)"). The returned string borrows the
// structure block directly — no copy.
func (t Title) Split(buf *Buf) (string, Body, error) {
	name, next, err := readCString(buf, t.idx+4)
	if err != nil {
		return "", Body{}, err
	}
	if len(name) == 0 {
		return "", Body{idx: next}, nil
	}
	return unsafe.String(&name[0], len(name)), Body{idx: next}, nil
}

// MultiNodeCursor describes either a single node (Count==1) or a contiguous
// run of sibling nodes sharing a common base name (spec §4.3 "take_node" /
// "take_group").
type MultiNodeCursor struct {
	Start    Title // cursor to the first node's BEGIN_NODE
	SkipPast Body  // cursor just past the entire run
	Data     Body  // cursor to the first node's contents, after its name
	Count    int
}

// TakeNode produces a descriptor for the single node at t (spec §4.3
// "take_node").
func (t Title) TakeNode(buf *Buf) (MultiNodeCursor, error) {
	_, data, err := t.Split(buf)
	if err != nil {
		return MultiNodeCursor{}, err
	}
	skip, err := data.Escape(buf)
	if err != nil {
		return MultiNodeCursor{}, err
	}
	return MultiNodeCursor{Start: t, SkipPast: skip, Data: data, Count: 1}, nil
}

// TakeGroup starts at t and consumes consecutive sibling nodes whose name
// before '@' equals base, stopping at the first sibling that doesn't match
// (spec §4.3 "take_group", §8 "Group contiguity"). t itself is assumed to
// already be the base's first member.
func (t Title) TakeGroup(buf *Buf, base string) (MultiNodeCursor, error) {
	_, firstData, err := t.Split(buf)
	if err != nil {
		return MultiNodeCursor{}, err
	}
	count := 1
	cur := firstData
	for {
		after, err := cur.Escape(buf)
		if err != nil {
			return MultiNodeCursor{}, err
		}
		class, title, _, err := after.MoveOn(buf)
		if err != nil {
			return MultiNodeCursor{}, err
		}
		if class != ClassTitle {
			return MultiNodeCursor{Start: t, SkipPast: after, Data: firstData, Count: count}, nil
		}
		name, nextData, err := title.Split(buf)
		if err != nil {
			return MultiNodeCursor{}, err
		}
		if siblingBase(name) != base {
			return MultiNodeCursor{Start: t, SkipPast: after, Data: firstData, Count: count}, nil
		}
		count++
		cur = nextData
	}
}

// siblingBase returns the portion of a node name before its first '@', or
// the whole name if there is none (spec §3 "Node name grammar").
func siblingBase(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '@' {
			return name[:i]
		}
	}
	return name
}

// SiblingBase exports siblingBase for callers outside this package that
// need the same base/unit splitting rule (e.g. the deserializer's map loop).
func SiblingBase(name string) string { return siblingBase(name) }

// SiblingUnit returns the portion of a node name after its first '@', or ""
// if the name has none.
func SiblingUnit(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '@' {
			return name[i+1:]
		}
	}
	return ""
}

// Name looks up the property's name in the string block and returns the
// cursor positioned at the next token (spec §4.3 "name/data(prop)").
func (p Prop) Name(buf *Buf) (string, Body, error) {
	lenVal, err := buf.word(p.idx + 4)
	if err != nil {
		return "", Body{}, err
	}
	nameOff, err := buf.word(p.idx + 8)
	if err != nil {
		return "", Body{}, err
	}
	name, err := lookupString(buf, int(nameOff))
	if err != nil {
		return "", Body{}, err
	}
	next := align4(p.idx + 12 + int(lenVal))
	if len(name) == 0 {
		return "", Body{idx: next}, nil
	}
	return unsafe.String(&name[0], len(name)), Body{idx: next}, nil
}

// Data returns the property's raw value bytes without copying (spec §4.3
// "name/data(prop)", §3 invariant 3).
func (p Prop) Data(buf *Buf) ([]byte, error) {
	lenVal, err := buf.word(p.idx + 4)
	if err != nil {
		return nil, err
	}
	start := p.idx + 12
	end := start + int(lenVal)
	if end > len(buf.Structure) {
		return nil, &Error{Err: ErrSliceEOF, Offset: buf.StructBase + end}
	}
	return buf.Structure[start:end], nil
}

// FileOffset returns the prop cursor's absolute offset within the blob.
func (p Prop) FileOffset(buf *Buf) int { return buf.StructBase + p.idx }

// SkipToken advances b past a single bare 4-byte token (an END_NODE or the
// terminal END) already classified by MoveOn as ClassEnd. Both tokens carry
// no payload, so no buffer access is needed to skip one.
func (b Body) SkipToken() Body { return Body{idx: b.idx + 4} }

// IsComplete reports whether b sits exactly on the terminal END token, per
// spec §4.4's "Termination requirement".
func (b Body) IsComplete(buf *Buf) bool {
	if b.idx+4 > len(buf.Structure) {
		return false
	}
	return binary.BigEndian.Uint32(buf.Structure[b.idx:b.idx+4]) == tokenEnd
}
