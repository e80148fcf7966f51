package exporter

// nameTable keeps first occurrence order, duplicates reuse index
type nameTable struct {
	names []string
	index map[string]int
}

func newNameTable() *nameTable {
	return &nameTable{index: make(map[string]int)}
}

func (nt *nameTable) Add(name string) int {
	if i, ok := nt.index[name]; ok {
		return i
	}
	nt.index[name] = len(nt.names)
	nt.names = append(nt.names, name)
	return len(nt.names) - 1
}

func (nt *nameTable) Index(name string) (int, bool) {
	i, ok := nt.index[name]
	return i, ok
}

func (nt *nameTable) Len() int {
	return len(nt.names)
}

func (nt *nameTable) Names() []string {
	return append([]string(nil), nt.names...)
}
