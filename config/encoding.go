package config

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const EncodingUTF8 = "UTF-8"

var currentEncoding encoding.Encoding = unicode.UTF8
var currentEncodingName = EncodingUTF8

// SetEncoding selects text encoding of model name tables
func SetEncoding(name string) error {
	if name == EncodingUTF8 || name == "utf-8" || name == "utf8" {
		currentEncoding = unicode.UTF8
		currentEncodingName = EncodingUTF8
		return nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if cm.String() == name {
				currentEncoding = cm
				currentEncodingName = name
				return nil
			}
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := []string{EncodingUTF8}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() encoding.Encoding {
	return currentEncoding
}

func GetEncodingName() string {
	return currentEncodingName
}
