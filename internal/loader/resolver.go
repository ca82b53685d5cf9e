package loader

// idSet tracks which explicit keys have been loaded so later rows can
// be checked before they reach the database.
type idSet map[int]struct{}

func (s idSet) add(id int) {
	s[id] = struct{}{}
}

func (s idSet) has(id int) bool {
	_, ok := s[id]
	return ok
}

// nameIndex maps natural keys to generated surrogate ids for one
// table. A name seen more than once is remembered as ambiguous so a
// lookup never silently picks one of several rows.
type nameIndex struct {
	ids    map[string]int
	counts map[string]int
}

func newNameIndex() *nameIndex {
	return &nameIndex{
		ids:    make(map[string]int),
		counts: make(map[string]int),
	}
}

func (x *nameIndex) add(name string, id int) {
	x.ids[name] = id
	x.counts[name]++
}

// lookup resolves a name to its surrogate id. The column is the CSV
// column being resolved, for error reporting.
func (x *nameIndex) lookup(column, name string) (int, error) {
	switch x.counts[name] {
	case 0:
		return 0, &UnknownReferenceError{Column: column, Value: name}
	case 1:
		return x.ids[name], nil
	default:
		return 0, &AmbiguousReferenceError{
			Column: column,
			Value:  name,
			Count:  x.counts[name],
		}
	}
}

func (x *nameIndex) len() int {
	return len(x.ids)
}
