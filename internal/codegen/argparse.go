package codegen

import (
	"fmt"
	"strings"

	"pylift/internal/hir"
)

// argparseArg is one recorded add_argument call.
type argparseArg struct {
	Field    string // struct field name, dashes stripped
	Flag     string // original flag text, "" for positionals
	RustType string
	Default  string // rendered default expression, "" when absent
	Help     string
}

// argparseSub is one subcommand parser.
type argparseSub struct {
	Name string
	Args []argparseArg
}

// argparseTracker watches for the Source's argument-parser idiom and
// collects enough structure to hoist an Args struct (and a subcommand enum)
// to module level.
type argparseTracker struct {
	active     bool
	parserVars map[string]bool
	subVars    map[string]*argparseSub // sub-parser variable -> its record
	args       []argparseArg
	subs       []*argparseSub
	accessed   map[string]bool
}

func newArgparseTracker() *argparseTracker {
	return &argparseTracker{
		parserVars: make(map[string]bool),
		subVars:    make(map[string]*argparseSub),
		accessed:   make(map[string]bool),
	}
}

// Active reports whether the module builds an argument parser.
func (t *argparseTracker) Active() bool { return t.active }

// markParser records that a variable holds the top-level parser.
func (t *argparseTracker) markParser(varName string) {
	t.active = true
	t.parserVars[varName] = true
}

// isParser reports whether a variable is a known parser or sub-parser.
func (t *argparseTracker) isParser(varName string) bool {
	if t.parserVars[varName] {
		return true
	}
	_, ok := t.subVars[varName]
	return ok
}

// markSubParser records "sub = subparsers.add_parser(name)".
func (t *argparseTracker) markSubParser(varName, subName string) {
	t.active = true
	sub := &argparseSub{Name: subName}
	t.subVars[varName] = sub
	t.subs = append(t.subs, sub)
}

// recordArgument records an add_argument call on a parser variable.
func (t *argparseTracker) recordArgument(parserVar string, args []*hir.Expr) {
	arg, ok := decodeArgument(args)
	if !ok {
		return
	}
	if sub, isSub := t.subVars[parserVar]; isSub {
		sub.Args = append(sub.Args, arg)
		return
	}
	t.args = append(t.args, arg)
}

// markAccess records a field read on the parsed-namespace value.
func (t *argparseTracker) markAccess(field string) {
	t.accessed[field] = true
}

func decodeArgument(args []*hir.Expr) (argparseArg, bool) {
	if len(args) == 0 {
		return argparseArg{}, false
	}
	lit, ok := args[0].Data.(hir.LiteralData)
	if !ok || lit.Kind != hir.LitString {
		return argparseArg{}, false
	}
	flag := lit.StringValue
	field := strings.TrimLeft(flag, "-")
	field = strings.ReplaceAll(field, "-", "_")
	arg := argparseArg{Field: field, RustType: "String"}
	if strings.HasPrefix(flag, "-") {
		arg.Flag = flag
	}
	// Remaining positional arguments were keyword pairs in the source;
	// the frontend flattens known keywords in order: type, default, help.
	for _, extra := range args[1:] {
		switch d := extra.Data.(type) {
		case hir.VarData:
			switch d.Name {
			case "int":
				arg.RustType = "i64"
			case "float":
				arg.RustType = "f64"
			case "bool":
				arg.RustType = "bool"
			}
		case hir.LiteralData:
			switch d.Kind {
			case hir.LitString:
				if arg.Help == "" && arg.Default == "" {
					arg.Help = d.StringValue
				}
			case hir.LitInt:
				arg.Default = fmt.Sprintf("%d", d.IntValue)
			case hir.LitBool:
				arg.RustType = "bool"
				arg.Default = fmt.Sprintf("%t", d.BoolValue)
			}
		}
	}
	return arg, true
}

// renderArgs emits the hoisted Args struct and, when subcommands exist, the
// Command enum. Under single-shot the derive is replaced with a plain
// default-deriving struct; the sanitizer also strips any leftovers.
func (t *argparseTracker) renderArgs(w *Writer, singleShot bool) {
	if !t.active {
		return
	}
	if singleShot {
		w.Line("#[derive(Debug, Default)]")
		w.WriteString("pub struct Args")
	} else {
		w.Line("#[derive(clap::Parser, Debug)]")
		w.WriteString("pub struct Args")
	}
	w.OpenBlock()
	for _, arg := range t.args {
		if !singleShot && arg.Flag != "" {
			if arg.Help != "" {
				w.Linef("#[arg(long, help = %q)]", arg.Help)
			} else {
				w.Line("#[arg(long)]")
			}
		}
		w.Linef("pub %s: %s,", rustIdent(arg.Field), arg.RustType)
	}
	if len(t.subs) > 0 {
		if !singleShot {
			w.Line("#[command(subcommand)]")
		}
		w.Line("pub command: Command,")
	}
	w.CloseBlock()
	w.BlankLine()

	if len(t.subs) == 0 {
		return
	}
	if singleShot {
		w.Line("#[derive(Debug)]")
	} else {
		w.Line("#[derive(clap::Subcommand, Debug)]")
	}
	w.WriteString("pub enum Command")
	w.OpenBlock()
	for _, sub := range t.subs {
		w.WriteString(titleCase(sub.Name))
		if len(sub.Args) > 0 {
			w.WriteString(" {")
			w.Newline()
			w.IndentPush()
			for _, arg := range sub.Args {
				w.Linef("%s: %s,", rustIdent(arg.Field), arg.RustType)
			}
			w.IndentPop()
			w.Line("},")
		} else {
			w.Line(",")
		}
	}
	w.CloseBlock()
	w.BlankLine()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
