package utils

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// BufStackError is recorded by the first out of bounds access.
// All following reads of the same buffer return zero values.
type BufStackError struct {
	Buf    string
	Offset int
	Need   int
	Have   int
}

func (e *BufStackError) Error() string {
	return fmt.Sprintf("%s: need 0x%x bytes at 0x%x, have 0x%x", e.Buf, e.Need, e.Offset, e.Have)
}

type BufStack struct {
	parent         *BufStack
	childs         []*BufStack
	buf            []byte
	relativeOffset int
	absoluteOffset int
	size           int
	pos            int
	kind           string
	name           string
	err            error
}

func NewBufStack(kind string, b []byte) *BufStack {
	return &BufStack{
		buf:  b,
		size: len(b),
		kind: kind,
	}
}

func (bs *BufStack) addChild(childBs *BufStack) {
	if bs.childs == nil {
		bs.childs = make([]*BufStack, 1)
		bs.childs[0] = childBs
	} else {
		index := sort.Search(len(bs.childs), func(i int) bool {
			return bs.childs[i].relativeOffset > childBs.relativeOffset
		})
		bs.childs = append(bs.childs, childBs)
		copy(bs.childs[index+1:], bs.childs[index:])
		bs.childs[index] = childBs
	}
}

func (bs *BufStack) fail(offset, need int) {
	if bs.err == nil {
		bs.err = &BufStackError{
			Buf:    bs.StringChain(),
			Offset: offset,
			Need:   need,
			Have:   bs.size - offset,
		}
	}
}

// SubBuf creates child buffer spanning from offset up to end of parent
func (bs *BufStack) SubBuf(kind string, offset int) *BufStack {
	childBs := &BufStack{
		parent:         bs,
		relativeOffset: offset,
		absoluteOffset: bs.absoluteOffset + offset,
		kind:           kind,
	}
	if offset < 0 || offset > bs.size {
		childBs.fail(0, offset)
		childBs.buf = []byte{}
	} else {
		childBs.buf = bs.buf[offset:bs.size]
		childBs.size = len(childBs.buf)
	}
	bs.addChild(childBs)
	return childBs
}

func (bs *BufStack) SubBufFollowing(kind string) *BufStack {
	return bs.parent.SubBuf(kind, bs.relativeOffset+bs.size)
}

func (bs *BufStack) SetName(name string) *BufStack {
	bs.name = name
	return bs
}

// SetSize shrinks buffer, growing past available data marks buffer failed
func (bs *BufStack) SetSize(size int) *BufStack {
	if size < 0 || size > len(bs.buf) {
		bs.fail(0, size)
		size = 0
	}
	bs.size = size
	bs.buf = bs.buf[:size]
	return bs
}

func (bs *BufStack) Name() string {
	return bs.name
}

func (bs *BufStack) Size() int {
	return bs.size
}

func (bs *BufStack) Kind() string {
	return bs.kind
}

func (bs *BufStack) RelativeOffset() int {
	return bs.relativeOffset
}

func (bs *BufStack) AbsoluteOffset() int {
	return bs.absoluteOffset
}

func (bs *BufStack) Err() error {
	return bs.err
}

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>(%v)[o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]",
		bs.kind, bs.name, bs.relativeOffset, bs.size, bs.absoluteOffset, bs.absoluteOffset+bs.size)
}

func (bs *BufStack) StringChain() string {
	s := bs.String()
	if bs.parent != nil {
		s += fmt.Sprintf("::%s", bs.parent.String())
	}
	return s
}

func (bs *BufStack) stringTree(pad int) string {
	sPad := ""
	for i := 0; i < pad; i++ {
		sPad += ".  "
	}
	s := sPad + bs.String() + "\n"
	pos := 0
	for i, child := range bs.childs {
		if child.relativeOffset > pos {
			s += fmt.Sprintf("%s.  gap [o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]\n",
				sPad, pos, child.relativeOffset-pos, bs.absoluteOffset+pos, child.absoluteOffset)
		}
		s += child.stringTree(pad + 1)
		end := child.relativeOffset + child.size
		if end > pos {
			pos = end
		}
		if i != len(bs.childs)-1 && end > bs.childs[i+1].relativeOffset {
			s += fmt.Sprintf("%s. [OVERLAP]\n", sPad)
		}
	}
	return s
}

func (bs *BufStack) StringTree() string {
	return bs.stringTree(0)
}

func (bs *BufStack) Raw() []byte {
	return bs.buf[:bs.size]
}

func (bs *BufStack) Remaining() int {
	return bs.size - bs.pos
}

// Need fails buffer when less than amount bytes remain
func (bs *BufStack) Need(amount int) bool {
	if amount < 0 || bs.pos+amount > bs.size {
		bs.fail(bs.pos, amount)
		return false
	}
	return bs.err == nil
}

func (bs *BufStack) Read(amount int) []byte {
	if bs.err != nil || !bs.Need(amount) {
		return make([]byte, amount)
	}
	oldPos := bs.pos
	bs.pos += amount
	return bs.buf[oldPos:bs.pos]
}

func (bs *BufStack) Skip(amount int) {
	if bs.Need(amount) {
		bs.pos += amount
	}
}

func (bs *BufStack) Seek(pos int) {
	if pos < 0 || pos > bs.size {
		bs.fail(pos, 0)
		return
	}
	bs.pos = pos
}

func (bs *BufStack) ReadLU32() uint32 {
	return binary.LittleEndian.Uint32(bs.Read(4))
}

func (bs *BufStack) ReadLU16() uint16 {
	return binary.LittleEndian.Uint16(bs.Read(2))
}

func (bs *BufStack) ReadByte() byte {
	return bs.Read(1)[0]
}

func (bs *BufStack) ReadLF() float32 {
	return math.Float32frombits(bs.ReadLU32())
}

func (bs *BufStack) VerifySize(pos int) error {
	if pos != bs.size {
		bs.fail(pos, bs.size-pos)
		return fmt.Errorf("Mismatch sizes: %v != %v", pos, bs.size)
	}
	return nil
}
