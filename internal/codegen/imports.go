package codegen

import "strings"

// importFlag identifies one deferred use statement. Flags are set while
// emitting expressions; the module emitter prepends the corresponding use
// lines for exactly the flags that fired.
type importFlag uint8

const (
	needHashMap importFlag = iota
	needHashSet
	needVecDeque
	needPathBuf
	needSystemTime
	needDuration
	needFmtWrite
	needDefaultHasher
	needHasherTrait
	flagCount
)

var importPaths = [flagCount]string{
	needHashMap:       "std::collections::HashMap",
	needHashSet:       "std::collections::HashSet",
	needVecDeque:      "std::collections::VecDeque",
	needPathBuf:       "std::path::PathBuf",
	needSystemTime:    "std::time::SystemTime",
	needDuration:      "std::time::Duration",
	needFmtWrite:      "std::fmt::Write",
	needDefaultHasher: "std::collections::hash_map::DefaultHasher",
	needHasherTrait:   "std::hash::{Hash, Hasher}",
}

// importSet is the family of needs-X flags.
type importSet struct {
	flags [flagCount]bool
}

func (s *importSet) set(f importFlag) { s.flags[f] = true }

// uses returns the use lines for the fired flags, in declaration order.
func (s *importSet) uses() []string {
	var out []string
	for f := importFlag(0); f < flagCount; f++ {
		if s.flags[f] {
			out = append(out, "use "+importPaths[f]+";")
		}
	}
	return out
}

// markTypeImports walks a rendered type and fires the flags its names need.
func (s *importSet) markTypeImports(rendered string) {
	for f, path := range map[importFlag]string{
		needHashMap:    "HashMap<",
		needHashSet:    "HashSet<",
		needVecDeque:   "VecDeque<",
		needPathBuf:    "PathBuf",
		needSystemTime: "SystemTime",
		needDuration:   "Duration",
	} {
		if strings.Contains(rendered, path) {
			s.set(f)
		}
	}
}
