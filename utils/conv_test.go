package utils

import (
	"testing"

	"github.com/mogaika/mdl_tools/config"
)

func TestStringToBytes(t *testing.T) {
	defer config.SetEncoding(config.EncodingUTF8)

	b, err := StringToBytes("j_kosi", true)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "j_kosi\x00" {
		t.Errorf("got %q", b)
	}
	if BytesToString(b) != "j_kosi" {
		t.Errorf("BytesToString(%q) = %q", b, BytesToString(b))
	}
	if _, err := StringToBytes("a\x00b", false); err == nil {
		t.Errorf("nul in name must fail")
	}

	if err := config.SetEncoding("Windows 1252"); err != nil {
		t.Fatal(err)
	}
	b, err = StringToBytes("é", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 1 || b[0] != 0xe9 {
		t.Errorf("windows 1252 encoding got %x", b)
	}
}

func TestAlign(t *testing.T) {
	for _, c := range []struct{ size, align, pad int }{
		{0, 16, 0}, {1, 16, 15}, {16, 16, 0}, {17, 4, 3},
	} {
		if p := PadTo(c.size, c.align); p != c.pad {
			t.Errorf("PadTo(%d, %d) = %d, want %d", c.size, c.align, p, c.pad)
		}
		if a := AlignUp(c.size, c.align); a != c.size+c.pad {
			t.Errorf("AlignUp(%d, %d) = %d", c.size, c.align, a)
		}
	}
}
