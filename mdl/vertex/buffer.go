package vertex

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/3rdparty/half"
	"github.com/mogaika/mdl_tools/utils"
)

// StreamBuffer is interleaved data of Count vertices of one stream
type StreamBuffer struct {
	Layout *StreamLayout
	Data   []byte
	Count  int
}

func NewStreamBuffer(sl *StreamLayout, count int) *StreamBuffer {
	return &StreamBuffer{
		Layout: sl,
		Data:   make([]byte, sl.Stride*count),
		Count:  count,
	}
}

// WrapStreamBuffer views raw stream bytes, data must hold count rows
func WrapStreamBuffer(sl *StreamLayout, data []byte, count int) (*StreamBuffer, error) {
	if len(data) < sl.Stride*count {
		return nil, errors.Errorf("Stream data 0x%x bytes is less then %d vertices of stride %d", len(data), count, sl.Stride)
	}
	return &StreamBuffer{Layout: sl, Data: data[:sl.Stride*count], Count: count}, nil
}

func (sb *StreamBuffer) Row(i int) []byte {
	stride := sb.Layout.Stride
	return sb.Data[i*stride : (i+1)*stride]
}

// AppendRows copies rows of src (same layout) to the end
func (sb *StreamBuffer) AppendRows(src *StreamBuffer, rows []int) {
	for _, r := range rows {
		sb.Data = append(sb.Data, src.Row(r)...)
	}
	sb.Count += len(rows)
}

// Select returns new buffer built from listed rows
func (sb *StreamBuffer) Select(rows []int) *StreamBuffer {
	r := &StreamBuffer{Layout: sb.Layout, Data: make([]byte, 0, len(rows)*sb.Layout.Stride)}
	r.AppendRows(sb, rows)
	return r
}

func (sb *StreamBuffer) field(name string) (*Field, error) {
	f, ok := sb.Layout.Field(name)
	if !ok {
		return nil, errors.Errorf("Stream has no field %q", name)
	}
	return f, nil
}

func (sb *StreamBuffer) checkWidth(f *Field, values, width int) (int, error) {
	if width <= 0 {
		return 0, errors.Errorf("Field %s: invalid width %d", f.Name, width)
	}
	if values != width*sb.Count {
		return 0, errors.Errorf("Field %s: %d values for %d vertices of width %d", f.Name, values, sb.Count, width)
	}
	if width > f.Storage.Count {
		return f.Storage.Count, nil
	}
	return width, nil
}

// PutFloats writes width components per vertex. Extra source
// components are dropped, missing field components are left untouched.
func (sb *StreamBuffer) PutFloats(name string, values []float32, width int) error {
	f, err := sb.field(name)
	if err != nil {
		return err
	}
	if _, err := sb.checkWidth(f, len(values), width); err != nil {
		return err
	}
	return sb.PutFloatsAt(name, 0, values, width)
}

// PutFloatsAt writes len(values)/width rows starting from row first
func (sb *StreamBuffer) PutFloatsAt(name string, first int, values []float32, width int) error {
	f, err := sb.field(name)
	if err != nil {
		return err
	}
	if width <= 0 || len(values)%width != 0 {
		return errors.Errorf("Field %s: %d values do not split by width %d", name, len(values), width)
	}
	rows := len(values) / width
	if first < 0 || first+rows > sb.Count {
		return errors.Errorf("Field %s: rows %d+%d outside %d vertices", name, first, rows, sb.Count)
	}
	n := width
	if n > f.Storage.Count {
		n = f.Storage.Count
	}
	stride := sb.Layout.Stride
	csize := f.Storage.Kind.Size()
	for v := 0; v < rows; v++ {
		base := (first+v)*stride + f.Offset
		for c := 0; c < n; c++ {
			putComponent(sb.Data[base+c*csize:], f.Storage, values[v*width+c])
		}
	}
	return nil
}

// Floats reads width components per vertex, components missing in field are zero
func (sb *StreamBuffer) Floats(name string, width int) ([]float32, error) {
	f, err := sb.field(name)
	if err != nil {
		return nil, err
	}
	out := make([]float32, sb.Count*width)
	n, err := sb.checkWidth(f, len(out), width)
	if err != nil {
		return nil, err
	}
	stride := sb.Layout.Stride
	csize := f.Storage.Kind.Size()
	for v := 0; v < sb.Count; v++ {
		base := v*stride + f.Offset
		for c := 0; c < n; c++ {
			out[v*width+c] = getComponent(sb.Data[base+c*csize:], f.Storage)
		}
	}
	return out, nil
}

// PutBytes writes raw byte components of 8 bit fields
func (sb *StreamBuffer) PutBytes(name string, values []uint8, width int) error {
	f, err := sb.field(name)
	if err != nil {
		return err
	}
	if f.Storage.Kind != KIND_UINT8 {
		return errors.Errorf("Field %s is not byte field", name)
	}
	n, err := sb.checkWidth(f, len(values), width)
	if err != nil {
		return err
	}
	stride := sb.Layout.Stride
	for v := 0; v < sb.Count; v++ {
		copy(sb.Data[v*stride+f.Offset:v*stride+f.Offset+n], values[v*width:v*width+n])
	}
	return nil
}

func (sb *StreamBuffer) Bytes(name string, width int) ([]uint8, error) {
	f, err := sb.field(name)
	if err != nil {
		return nil, err
	}
	if f.Storage.Kind != KIND_UINT8 {
		return nil, errors.Errorf("Field %s is not byte field", name)
	}
	out := make([]uint8, sb.Count*width)
	n, err := sb.checkWidth(f, len(out), width)
	if err != nil {
		return nil, err
	}
	stride := sb.Layout.Stride
	for v := 0; v < sb.Count; v++ {
		copy(out[v*width:v*width+n], sb.Data[v*stride+f.Offset:])
	}
	return out, nil
}

func putComponent(b []byte, s Storage, v float32) {
	switch s.Kind {
	case KIND_FLOAT32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	case KIND_FLOAT16:
		binary.LittleEndian.PutUint16(b, uint16(half.NewFloat16(v)))
	case KIND_UINT8:
		if s.Normalized {
			v = utils.ClampF(v, 0, 1) * 0xff
		}
		b[0] = uint8(utils.ClampF(round(v), 0, 0xff))
	case KIND_INT16:
		if s.Normalized {
			v = utils.ClampF(v, -1, 1) * 0x7fff
		}
		binary.LittleEndian.PutUint16(b, uint16(int16(utils.ClampF(round(v), -0x8000, 0x7fff))))
	case KIND_UINT16:
		if s.Normalized {
			v = utils.ClampF(v, 0, 1) * 0xffff
		}
		binary.LittleEndian.PutUint16(b, uint16(utils.ClampF(round(v), 0, 0xffff)))
	}
}

func getComponent(b []byte, s Storage) float32 {
	switch s.Kind {
	case KIND_FLOAT32:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case KIND_FLOAT16:
		return half.Float16(binary.LittleEndian.Uint16(b)).Float32()
	case KIND_UINT8:
		if s.Normalized {
			return float32(b[0]) / 0xff
		}
		return float32(b[0])
	case KIND_INT16:
		v := float32(int16(binary.LittleEndian.Uint16(b)))
		if s.Normalized {
			return utils.ClampF(v/0x7fff, -1, 1)
		}
		return v
	case KIND_UINT16:
		v := float32(binary.LittleEndian.Uint16(b))
		if s.Normalized {
			return v / 0xffff
		}
		return v
	}
	return 0
}

func round(v float32) float32 {
	return float32(math.Round(float64(v)))
}
