package exporter

import (
	"fmt"
	"sort"

	"github.com/mogaika/mdl_tools/mdl/weights"
)

type ObjectReport struct {
	Name  string
	Stats weights.Stats
	// vertex groups ignored because skeleton has no such bone
	UnknownGroups []string
}

// Report collects non fatal problems of export run
type Report struct {
	Objects     []*ObjectReport
	Total       weights.Stats
	Diagnostics []string
}

func (r *Report) object(name string) *ObjectReport {
	for _, o := range r.Objects {
		if o.Name == name {
			return o
		}
	}
	o := &ObjectReport{Name: name}
	r.Objects = append(r.Objects, o)
	return o
}

func (r *Report) addStats(name string, s weights.Stats) {
	r.object(name).Stats.Add(s)
	r.Total.Add(s)
}

func (r *Report) addUnknownGroup(name, group string) {
	o := r.object(name)
	for _, g := range o.UnknownGroups {
		if g == group {
			return
		}
	}
	o.UnknownGroups = append(o.UnknownGroups, group)
}

func (r *Report) diag(format string, a ...interface{}) {
	r.Diagnostics = append(r.Diagnostics, fmt.Sprintf(format, a...))
}

// Warnings formats report for user, one line per problem
func (r *Report) Warnings() []string {
	var w []string
	objects := append([]*ObjectReport(nil), r.Objects...)
	sort.SliceStable(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	for _, o := range objects {
		if o.Stats.Overflow != 0 {
			w = append(w, fmt.Sprintf("%s: %d vertices have more influences than bone limit, smallest dropped", o.Name, o.Stats.Overflow))
		}
		if o.Stats.Renormalized != 0 {
			w = append(w, fmt.Sprintf("%s: %d vertices had weights not summing to 1 and were renormalized", o.Name, o.Stats.Renormalized))
		}
		if o.Stats.ZeroFallback != 0 {
			w = append(w, fmt.Sprintf("%s: %d vertices without weights were bound to first bone", o.Name, o.Stats.ZeroFallback))
		}
		if o.Stats.NonFinite != 0 {
			w = append(w, fmt.Sprintf("%s: %d NaN or infinite weights were ignored", o.Name, o.Stats.NonFinite))
		}
		for _, g := range o.UnknownGroups {
			w = append(w, fmt.Sprintf("%s: vertex group %q is not a bone and was ignored", o.Name, g))
		}
	}
	return append(w, r.Diagnostics...)
}

func (r *Report) Empty() bool {
	return len(r.Warnings()) == 0
}
