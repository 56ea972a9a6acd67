package heap

// strtab interns the strings referenced by FileName and FunctionName.
// Handles start at 1 so the zero handle means no string.
type strtab struct {
	index map[string]Addr
	strs  []string
}

func (tab *strtab) intern(s string) Addr {
	if s == "" {
		return 0
	}
	if id, ok := tab.index[s]; ok {
		return id
	}
	if tab.index == nil {
		tab.index = make(map[string]Addr)
	}
	tab.strs = append(tab.strs, s)
	id := Addr(len(tab.strs))
	tab.index[s] = id
	return id
}

func (tab *strtab) lookup(id Addr) string {
	if id == 0 || id > Addr(len(tab.strs)) {
		return ""
	}
	return tab.strs[id-1]
}
