package utils

import (
	"strings"
	"testing"
)

func TestBufStackReads(t *testing.T) {
	bs := NewBufStack("file", []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x00, 0x80, 0x3f, 0xaa})
	if v := bs.ReadLU16(); v != 0x0201 {
		t.Errorf("ReadLU16 = 0x%x", v)
	}
	if v := bs.ReadLU16(); v != 0x0403 {
		t.Errorf("ReadLU16 = 0x%x", v)
	}
	if v := bs.ReadLF(); v != 1.0 {
		t.Errorf("ReadLF = %v", v)
	}
	if bs.Remaining() != 1 {
		t.Errorf("Remaining = %v", bs.Remaining())
	}
	if v := bs.ReadByte(); v != 0xaa {
		t.Errorf("ReadByte = 0x%x", v)
	}
	if bs.Err() != nil {
		t.Errorf("unexpected error %v", bs.Err())
	}
}

func TestBufStackOutOfBounds(t *testing.T) {
	bs := NewBufStack("file", []byte{1, 2, 3})
	if v := bs.ReadLU32(); v != 0 {
		t.Errorf("failed read must return zero, got %v", v)
	}
	if bs.Err() == nil {
		t.Fatalf("expected error")
	}
	first := bs.Err()
	// sticky: first error stays, later reads are zero
	if v := bs.ReadByte(); v != 0 || bs.Err() != first {
		t.Errorf("error is not sticky")
	}
	if e, ok := first.(*BufStackError); !ok || e.Need != 4 || e.Have != 3 {
		t.Errorf("unexpected error %#v", first)
	}
}

func TestBufStackSubBuf(t *testing.T) {
	root := NewBufStack("file", make([]byte, 16))
	hdr := root.SubBuf("header", 0).SetSize(4)
	body := hdr.SubBufFollowing("body").SetSize(8)
	if body.RelativeOffset() != 4 || body.Size() != 8 {
		t.Errorf("body %v", body)
	}
	tail := root.SubBuf("tail", 12).SetSize(8)
	if tail.Err() == nil {
		t.Errorf("tail overflows root and must fail")
	}
	if bad := root.SubBuf("bad", 17); bad.Err() == nil {
		t.Errorf("sub buffer past end must fail")
	}
	tree := root.StringTree()
	if !strings.Contains(tree, "header") || !strings.Contains(tree, "body") {
		t.Errorf("tree is missing children:\n%s", tree)
	}
}
