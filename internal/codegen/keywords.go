package codegen

// rustKeywords are escaped as raw identifiers when a source name collides.
var rustKeywords = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true,
	"else": true, "enum": true, "extern": true, "false": true, "fn": true,
	"for": true, "if": true, "impl": true, "in": true, "let": true,
	"loop": true, "match": true, "mod": true, "move": true, "mut": true,
	"pub": true, "ref": true, "return": true, "static": true,
	"struct": true, "trait": true, "true": true, "type": true,
	"unsafe": true, "use": true, "where": true, "while": true,
	"async": true, "await": true, "dyn": true, "abstract": true,
	"become": true, "box": true, "do": true, "final": true, "macro": true,
	"override": true, "priv": true, "typeof": true, "unsized": true,
	"virtual": true, "yield": true,
}

// noRawForm cannot be written as r#name; they get a trailing underscore.
var noRawForm = map[string]bool{
	"self": true, "Self": true, "super": true, "crate": true,
}

// preludeTypes are capitalized prelude names a source identifier may shadow.
var preludeTypes = map[string]bool{
	"String": true, "Vec": true, "Box": true, "Option": true,
	"Result": true, "Some": true, "None": true, "Ok": true, "Err": true,
	"Clone": true, "Copy": true, "Drop": true, "Default": true,
}

// preludeValues are lowercase prelude functions worth renaming.
var preludeValues = map[string]bool{
	"drop": true, "panic": true, "vec": true,
}

// rustIdent maps a source identifier to its emitted form. The mapping is a
// pure function, so every declaration and reference of a name agrees.
func rustIdent(name string) string {
	switch {
	case noRawForm[name]:
		return name + "_"
	case rustKeywords[name]:
		return "r#" + name
	case preludeTypes[name]:
		return "Py" + name
	case preludeValues[name]:
		return name + "_py"
	default:
		return name
	}
}
