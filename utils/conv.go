package utils

import (
	"bytes"

	"github.com/mogaika/mdl_tools/config"

	"github.com/pkg/errors"
	"golang.org/x/text/transform"
)

func BytesToString(bs []byte) string {
	n := bytes.IndexByte(bs, 0)
	if n < 0 {
		n = len(bs)
	}

	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs[0:n])
	if err != nil {
		// keep raw bytes, names are informative only
		return string(bs[0:n])
	}

	return string(s)
}

func StringToBytes(s string, nilTerminate bool) ([]byte, error) {
	bs, _, err := transform.Bytes(config.GetEncoding().NewEncoder(), []byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot encode %q with %s", s, config.GetEncodingName())
	}
	if bytes.IndexByte(bs, 0) >= 0 {
		return nil, errors.Errorf("String %q contains nul byte", s)
	}

	if nilTerminate {
		bs = append(bs, 0)
	}
	return bs, nil
}

// PadTo returns amount of bytes required to align size
func PadTo(size, align int) int {
	if rem := size % align; rem != 0 {
		return align - rem
	}
	return 0
}

func AlignUp(size, align int) int {
	return size + PadTo(size, align)
}
