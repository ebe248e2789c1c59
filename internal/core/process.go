package core

import "sort"

// UniqueByName collapses processes sharing a name into one entry. The first
// entry seen for a name, in input order, is kept as its representative, and
// the result is sorted ascending by name.
func UniqueByName(procs []ProcessInfo) []ProcessInfo {
	seen := make(map[string]struct{}, len(procs))
	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// NameSet returns the set of distinct process names.
func NameSet(procs []ProcessInfo) map[string]struct{} {
	set := make(map[string]struct{}, len(procs))
	for _, p := range procs {
		set[p.Name] = struct{}{}
	}
	return set
}
