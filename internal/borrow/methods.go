package borrow

// mutatingMethods is the closed list of receiver-mutating method names.
// A method not listed here is assumed read-only even on user-defined types;
// that boundary is documented rather than guessed at.
var mutatingMethods = map[string]bool{
	// list
	"append": true, "extend": true, "insert": true, "remove": true,
	"pop": true, "clear": true, "reverse": true, "sort": true,
	// dict
	"update": true, "setdefault": true, "popitem": true,
	// set
	"add": true, "discard": true,
	"difference_update": true, "intersection_update": true,
	"symmetric_difference_update": true, "union_update": true,
	// deque
	"push": true, "pop_front": true, "push_front": true,
	"pop_back": true, "push_back": true,
}

// IsMutatingMethod reports whether a method call mutates its receiver.
func IsMutatingMethod(name string) bool {
	return mutatingMethods[name]
}
