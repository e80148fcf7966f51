package mdl

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/utils"
)

// stringBlock deduplicates names, first occurrence keeps its offset
type stringBlock struct {
	data    bytes.Buffer
	offsets map[string]uint32
	count   int
}

func newStringBlock() *stringBlock {
	return &stringBlock{offsets: make(map[string]uint32)}
}

func (sb *stringBlock) Add(s string) (uint32, error) {
	if off, ok := sb.offsets[s]; ok {
		return off, nil
	}
	raw, err := utils.StringToBytes(s, true)
	if err != nil {
		return 0, err
	}
	off := uint32(sb.data.Len())
	sb.data.Write(raw)
	sb.offsets[s] = off
	sb.count++
	return off, nil
}

func (sb *stringBlock) Offset(s string) uint32 {
	return sb.offsets[s]
}

func (sb *stringBlock) Marshal() []byte {
	size := utils.AlignUp(sb.data.Len(), 4)
	buf := make([]byte, STRING_BLOCK_HEADER_SIZE+size)
	binary.LittleEndian.PutUint16(buf[0x0:], uint16(sb.count))
	binary.LittleEndian.PutUint32(buf[0x4:], uint32(size))
	copy(buf[STRING_BLOCK_HEADER_SIZE:], sb.data.Bytes())
	return buf
}

type parsedStringBlock struct {
	count int
	data  []byte
}

func (psb *parsedStringBlock) Get(off uint32) (string, error) {
	if int(off) >= len(psb.data) {
		return "", errors.Errorf("name offset 0x%x outside string block of size 0x%x", off, len(psb.data))
	}
	raw := psb.data[off:]
	if l := bytes.IndexByte(raw, 0); l < 0 {
		return "", errors.Errorf("name at 0x%x is not terminated", off)
	}
	return utils.BytesToString(raw), nil
}

func (psb *parsedStringBlock) GetList(offsets []uint32) ([]string, error) {
	names := make([]string, len(offsets))
	for i, off := range offsets {
		name, err := psb.Get(off)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}
