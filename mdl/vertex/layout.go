package vertex

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/mdl"
)

type Field struct {
	Name    string
	Element mdl.VertexElement
	Storage Storage
	Offset  int
}

type StreamLayout struct {
	Fields []Field
	Stride int
}

func (sl *StreamLayout) Field(name string) (*Field, bool) {
	for i := range sl.Fields {
		if sl.Fields[i].Name == name {
			return &sl.Fields[i], true
		}
	}
	return nil, false
}

type Layout struct {
	Streams [mdl.STREAMS_USED]StreamLayout
}

func FieldName(usage mdl.VertexUsage, usageIndex uint8) string {
	return fmt.Sprintf("%s%d", usage, usageIndex)
}

// Field searches both streams
func (l *Layout) Field(name string) (stream int, f *Field, ok bool) {
	for i := range l.Streams {
		if f, ok := l.Streams[i].Field(name); ok {
			return i, f, true
		}
	}
	return -1, nil, false
}

func (l *Layout) Has(usage mdl.VertexUsage, usageIndex uint8) bool {
	_, _, ok := l.Field(FieldName(usage, usageIndex))
	return ok
}

// StreamCount is number of streams with at least one field
func (l *Layout) StreamCount() int {
	count := 0
	for i := range l.Streams {
		if len(l.Streams[i].Fields) != 0 {
			count = i + 1
		}
	}
	return count
}

// NewLayout validates declaration and resolves stream layouts.
// Each element offset must equal total size of previous elements of its stream.
func NewLayout(decl mdl.VertexDeclaration) (*Layout, error) {
	if len(decl.Elements) >= mdl.VERTEX_DECLARATION_SLOTS {
		return nil, errors.Errorf("Declaration has %d elements, max %d", len(decl.Elements), mdl.VERTEX_DECLARATION_SLOTS-1)
	}
	l := &Layout{}
	seen := make(map[string]struct{})
	for _, e := range decl.Elements {
		if int(e.Stream) >= mdl.STREAMS_USED {
			return nil, errors.Errorf("Element %v uses stream %d", e, e.Stream)
		}
		storage, err := StorageFor(e.Type, e.Usage)
		if err != nil {
			return nil, errors.Wrapf(err, "Element %v", e)
		}
		if (e.Usage == mdl.VERTEX_USAGE_POSITION || e.Usage == mdl.VERTEX_USAGE_NORMAL) && e.UsageIndex != 0 {
			return nil, errors.Errorf("Element %v: only one %s is allowed", e, e.Usage)
		}
		name := FieldName(e.Usage, e.UsageIndex)
		if _, dup := seen[name]; dup {
			return nil, errors.Errorf("Duplicated element %s", name)
		}
		seen[name] = struct{}{}

		sl := &l.Streams[e.Stream]
		if int(e.Offset) != sl.Stride {
			return nil, errors.Errorf("Element %v offset %d, expected %d", e, e.Offset, sl.Stride)
		}
		sl.Fields = append(sl.Fields, Field{Name: name, Element: e, Storage: storage, Offset: sl.Stride})
		sl.Stride += storage.Size()
		if sl.Stride > 0xff {
			return nil, errors.Errorf("Stream %d stride %d does not fit in byte", e.Stream, sl.Stride)
		}
	}
	return l, nil
}
