package hir

import (
	"encoding/json"
	"fmt"

	"pylift/internal/annotations"
	"pylift/internal/source"
	"pylift/internal/types"
)

// DecodeModule decodes a kind-tagged JSON document into a Module. Every
// statement, expression and type object carries a "kind" discriminator;
// unknown kinds fail the decode with a path back to the offending node.
// Generators are detected here so downstream passes can rely on
// Func.IsGenerator being set.
func DecodeModule(data []byte, file source.FileID) (*Module, error) {
	var raw rawModule
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("module: %w", err)
	}
	d := &decoder{file: file}
	m := &Module{Name: raw.Name, Span: d.span(raw.Span)}
	for _, ri := range raw.Imports {
		m.Imports = append(m.Imports, Import{
			Module: ri.Module,
			Names:  ri.Names,
			Alias:  ri.Alias,
			Span:   d.span(ri.Span),
		})
	}
	for i, ra := range raw.TypeAliases {
		ty, err := d.typ(ra.Type)
		if err != nil {
			return nil, fmt.Errorf("type_aliases[%d] %q: %w", i, ra.Name, err)
		}
		m.TypeAliases = append(m.TypeAliases, TypeAlias{Name: ra.Name, Type: ty, Span: d.span(ra.Span)})
	}
	for i, rc := range raw.Constants {
		ty, err := d.typ(rc.Type)
		if err != nil {
			return nil, fmt.Errorf("constants[%d] %q: %w", i, rc.Name, err)
		}
		val, err := d.expr(rc.Value)
		if err != nil {
			return nil, fmt.Errorf("constants[%d] %q: %w", i, rc.Name, err)
		}
		m.Constants = append(m.Constants, Constant{Name: rc.Name, Type: ty, Value: val, Span: d.span(rc.Span)})
	}
	for i, rf := range raw.Functions {
		fn, err := d.fn(rf)
		if err != nil {
			return nil, fmt.Errorf("functions[%d] %q: %w", i, rf.Name, err)
		}
		m.Functions = append(m.Functions, fn)
	}
	for i, rc := range raw.Classes {
		cl, err := d.class(rc)
		if err != nil {
			return nil, fmt.Errorf("classes[%d] %q: %w", i, rc.Name, err)
		}
		m.Classes = append(m.Classes, cl)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

type decoder struct {
	file source.FileID
}

// Raw wire shapes. Offsets are byte positions in the source file.

type rawSpan struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

type rawModule struct {
	Name        string         `json:"name"`
	Imports     []rawImport    `json:"imports"`
	TypeAliases []rawTypeAlias `json:"type_aliases"`
	Constants   []rawConstant  `json:"constants"`
	Functions   []rawFunc      `json:"functions"`
	Classes     []rawClass     `json:"classes"`
	Span        *rawSpan       `json:"span"`
}

type rawImport struct {
	Module string   `json:"module"`
	Names  []string `json:"names"`
	Alias  string   `json:"alias"`
	Span   *rawSpan `json:"span"`
}

type rawTypeAlias struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
	Span *rawSpan        `json:"span"`
}

type rawConstant struct {
	Name  string          `json:"name"`
	Type  json.RawMessage `json:"type"`
	Value json.RawMessage `json:"value"`
	Span  *rawSpan        `json:"span"`
}

type rawFunc struct {
	Name        string            `json:"name"`
	Params      []rawParam        `json:"params"`
	Ret         json.RawMessage   `json:"ret"`
	Body        []json.RawMessage `json:"body"`
	Annotations map[string]string `json:"annotations"`
	Docstring   string            `json:"docstring"`
	IsAsync     bool              `json:"is_async"`
	Span        *rawSpan          `json:"span"`
}

type rawParam struct {
	Name    string          `json:"name"`
	Type    json.RawMessage `json:"type"`
	Default json.RawMessage `json:"default"`
	Vararg  bool            `json:"vararg"`
}

type rawClass struct {
	Name        string     `json:"name"`
	Bases       []string   `json:"bases"`
	Fields      []rawField `json:"fields"`
	Methods     []rawFunc  `json:"methods"`
	IsDataclass bool       `json:"is_dataclass"`
	TypeParams  []string   `json:"type_params"`
	Docstring   string     `json:"docstring"`
	Span        *rawSpan   `json:"span"`
}

type rawField struct {
	Name       string          `json:"name"`
	Type       json.RawMessage `json:"type"`
	Default    json.RawMessage `json:"default"`
	IsClassVar bool            `json:"is_class_var"`
}

func (d *decoder) span(rs *rawSpan) source.Span {
	if rs == nil {
		return source.Span{File: d.file}
	}
	return source.Span{File: d.file, Start: rs.Start, End: rs.End}
}

func (d *decoder) fn(rf rawFunc) (*Func, error) {
	ann, err := annotations.Parse(rf.Annotations)
	if err != nil {
		return nil, err
	}
	f := &Func{
		Name:        rf.Name,
		Annotations: ann,
		Docstring:   rf.Docstring,
		IsAsync:     rf.IsAsync,
		Span:        d.span(rf.Span),
	}
	for i, rp := range rf.Params {
		ty, err := d.typ(rp.Type)
		if err != nil {
			return nil, fmt.Errorf("params[%d] %q: %w", i, rp.Name, err)
		}
		def, err := d.expr(rp.Default)
		if err != nil {
			return nil, fmt.Errorf("params[%d] %q: %w", i, rp.Name, err)
		}
		f.Params = append(f.Params, Param{Name: rp.Name, Type: ty, Default: def, Vararg: rp.Vararg})
	}
	if f.Ret, err = d.typ(rf.Ret); err != nil {
		return nil, fmt.Errorf("ret: %w", err)
	}
	if f.Body, err = d.stmts(rf.Body); err != nil {
		return nil, err
	}
	f.IsGenerator = ContainsYield(f.Body)
	return f, nil
}

func (d *decoder) class(rc rawClass) (*Class, error) {
	c := &Class{
		Name:        rc.Name,
		Bases:       rc.Bases,
		IsDataclass: rc.IsDataclass,
		TypeParams:  rc.TypeParams,
		Docstring:   rc.Docstring,
		Span:        d.span(rc.Span),
	}
	for i, rf := range rc.Fields {
		ty, err := d.typ(rf.Type)
		if err != nil {
			return nil, fmt.Errorf("fields[%d] %q: %w", i, rf.Name, err)
		}
		def, err := d.expr(rf.Default)
		if err != nil {
			return nil, fmt.Errorf("fields[%d] %q: %w", i, rf.Name, err)
		}
		c.Fields = append(c.Fields, Field{Name: rf.Name, Type: ty, Default: def, IsClassVar: rf.IsClassVar})
	}
	for i, rm := range rc.Methods {
		m, err := d.fn(rm)
		if err != nil {
			return nil, fmt.Errorf("methods[%d] %q: %w", i, rm.Name, err)
		}
		c.Methods = append(c.Methods, m)
	}
	return c, nil
}

// Types ---------------------------------------------------------------------

type rawType struct {
	Kind   string            `json:"kind"`
	Elem   json.RawMessage   `json:"elem"`
	Key    json.RawMessage   `json:"key"`
	Value  json.RawMessage   `json:"value"`
	Elems  []json.RawMessage `json:"elems"`
	Ret    json.RawMessage   `json:"ret"`
	Name   string            `json:"name"`
	Var    int               `json:"var"`
	Size   *rawArraySize     `json:"size"`
	Params []json.RawMessage `json:"params"`
}

type rawArraySize struct {
	Kind    string `json:"kind"`
	Literal int    `json:"literal"`
	Name    string `json:"name"`
	Expr    string `json:"expr"`
}

func (d *decoder) typ(raw json.RawMessage) (*types.Type, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var rt rawType
	if err := json.Unmarshal(raw, &rt); err != nil {
		return nil, fmt.Errorf("type: %w", err)
	}
	switch rt.Kind {
	case "unknown", "":
		return types.Unknown(), nil
	case "int":
		return types.Int(), nil
	case "float":
		return types.Float(), nil
	case "bool":
		return types.Bool(), nil
	case "str":
		return types.Str(), nil
	case "none":
		return types.None(), nil
	case "list", "set", "optional", "final":
		elem, err := d.typ(rt.Elem)
		if err != nil {
			return nil, err
		}
		switch rt.Kind {
		case "list":
			return types.List(elem), nil
		case "set":
			return types.Set(elem), nil
		case "optional":
			return types.Optional(elem), nil
		default:
			return types.Final(elem), nil
		}
	case "dict":
		key, err := d.typ(rt.Key)
		if err != nil {
			return nil, err
		}
		val, err := d.typ(rt.Value)
		if err != nil {
			return nil, err
		}
		return types.Dict(key, val), nil
	case "tuple", "union":
		elems, err := d.typs(rt.Elems)
		if err != nil {
			return nil, err
		}
		if rt.Kind == "tuple" {
			return types.Tuple(elems...), nil
		}
		return types.Union(elems...), nil
	case "function":
		params, err := d.typs(rt.Params)
		if err != nil {
			return nil, err
		}
		ret, err := d.typ(rt.Ret)
		if err != nil {
			return nil, err
		}
		return types.Function(params, ret), nil
	case "typevar":
		return types.TypeVar(rt.Name), nil
	case "uvar":
		return types.UVar(rt.Var), nil
	case "custom":
		return types.Custom(rt.Name), nil
	case "generic":
		params, err := d.typs(rt.Params)
		if err != nil {
			return nil, err
		}
		return types.Generic(rt.Name, params...), nil
	case "array":
		elem, err := d.typ(rt.Elem)
		if err != nil {
			return nil, err
		}
		size, err := decodeArraySize(rt.Size)
		if err != nil {
			return nil, err
		}
		return types.Array(elem, size), nil
	default:
		return nil, fmt.Errorf("unknown type kind %q", rt.Kind)
	}
}

func (d *decoder) typs(raws []json.RawMessage) ([]*types.Type, error) {
	out := make([]*types.Type, 0, len(raws))
	for i, r := range raws {
		t, err := d.typ(r)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func decodeArraySize(rs *rawArraySize) (types.ArraySize, error) {
	if rs == nil {
		return types.ArraySize{}, fmt.Errorf("array type without size")
	}
	switch rs.Kind {
	case "literal":
		return types.ArraySize{Kind: types.SizeLiteral, Literal: rs.Literal}, nil
	case "parameter":
		return types.ArraySize{Kind: types.SizeParameter, Name: rs.Name}, nil
	case "expression":
		return types.ArraySize{Kind: types.SizeExpression, Expr: rs.Expr}, nil
	default:
		return types.ArraySize{}, fmt.Errorf("unknown array size kind %q", rs.Kind)
	}
}

// Statements ----------------------------------------------------------------

type rawStmt struct {
	Kind     string            `json:"kind"`
	Span     *rawSpan          `json:"span"`
	Target   json.RawMessage   `json:"target"`
	Value    json.RawMessage   `json:"value"`
	Ann      json.RawMessage   `json:"ann"`
	Cond     json.RawMessage   `json:"cond"`
	Then     []json.RawMessage `json:"then"`
	Else     []json.RawMessage `json:"else"`
	Body     []json.RawMessage `json:"body"`
	Iter     json.RawMessage   `json:"iter"`
	Expr     json.RawMessage   `json:"expr"`
	Label    string            `json:"label"`
	Exc      json.RawMessage   `json:"exc"`
	From     json.RawMessage   `json:"from"`
	Handlers []rawHandler      `json:"handlers"`
	Finally  []json.RawMessage `json:"finally"`
	Items    []rawWithItem     `json:"items"`
	Msg      json.RawMessage   `json:"msg"`
	Targets  []json.RawMessage `json:"targets"`
	Names    []string          `json:"names"`
}

type rawHandler struct {
	Types   []string          `json:"types"`
	Binding string            `json:"binding"`
	Body    []json.RawMessage `json:"body"`
	Span    *rawSpan          `json:"span"`
}

type rawWithItem struct {
	Ctx     json.RawMessage `json:"ctx"`
	Binding string          `json:"binding"`
}

func (d *decoder) stmts(raws []json.RawMessage) ([]*Stmt, error) {
	out := make([]*Stmt, 0, len(raws))
	for i, r := range raws {
		s, err := d.stmt(r)
		if err != nil {
			return nil, fmt.Errorf("body[%d]: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) stmt(raw json.RawMessage) (*Stmt, error) {
	var rs rawStmt
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("stmt: %w", err)
	}
	s := &Stmt{Span: d.span(rs.Span)}
	switch rs.Kind {
	case "assign":
		target, err := d.target(rs.Target)
		if err != nil {
			return nil, err
		}
		value, err := d.expr(rs.Value)
		if err != nil {
			return nil, err
		}
		ann, err := d.typ(rs.Ann)
		if err != nil {
			return nil, err
		}
		s.Kind, s.Data = StmtAssign, AssignData{Target: target, Value: value, Ann: ann}
	case "return":
		value, err := d.expr(rs.Value)
		if err != nil {
			return nil, err
		}
		s.Kind, s.Data = StmtReturn, ReturnData{Value: value}
	case "if":
		cond, err := d.expr(rs.Cond)
		if err != nil {
			return nil, err
		}
		then, err := d.stmts(rs.Then)
		if err != nil {
			return nil, err
		}
		els, err := d.stmts(rs.Else)
		if err != nil {
			return nil, err
		}
		s.Kind, s.Data = StmtIf, IfData{Cond: cond, Then: then, Else: els}
	case "while":
		cond, err := d.expr(rs.Cond)
		if err != nil {
			return nil, err
		}
		body, err := d.stmts(rs.Body)
		if err != nil {
			return nil, err
		}
		s.Kind, s.Data = StmtWhile, WhileData{Cond: cond, Body: body}
	case "for":
		target, err := d.target(rs.Target)
		if err != nil {
			return nil, err
		}
		iter, err := d.expr(rs.Iter)
		if err != nil {
			return nil, err
		}
		body, err := d.stmts(rs.Body)
		if err != nil {
			return nil, err
		}
		s.Kind, s.Data = StmtFor, ForData{Target: target, Iter: iter, Body: body}
	case "expr":
		e, err := d.expr(rs.Expr)
		if err != nil {
			return nil, err
		}
		s.Kind, s.Data = StmtExpr, ExprStmtData{Expr: e}
	case "pass":
		s.Kind, s.Data = StmtPass, PassData{}
	case "break":
		s.Kind, s.Data = StmtBreak, BreakData{Label: rs.Label}
	case "continue":
		s.Kind, s.Data = StmtContinue, ContinueData{Label: rs.Label}
	case "raise":
		exc, err := d.expr(rs.Exc)
		if err != nil {
			return nil, err
		}
		from, err := d.expr(rs.From)
		if err != nil {
			return nil, err
		}
		s.Kind, s.Data = StmtRaise, RaiseData{Exc: exc, From: from}
	case "try":
		body, err := d.stmts(rs.Body)
		if err != nil {
			return nil, err
		}
		var handlers []Handler
		for i, rh := range rs.Handlers {
			hb, err := d.stmts(rh.Body)
			if err != nil {
				return nil, fmt.Errorf("handlers[%d]: %w", i, err)
			}
			handlers = append(handlers, Handler{
				Types:   rh.Types,
				Binding: rh.Binding,
				Body:    hb,
				Span:    d.span(rh.Span),
			})
		}
		els, err := d.stmts(rs.Else)
		if err != nil {
			return nil, err
		}
		fin, err := d.stmts(rs.Finally)
		if err != nil {
			return nil, err
		}
		s.Kind, s.Data = StmtTry, TryData{Body: body, Handlers: handlers, Else: els, Finally: fin}
	case "with":
		var items []WithItem
		for i, ri := range rs.Items {
			ctx, err := d.expr(ri.Ctx)
			if err != nil {
				return nil, fmt.Errorf("items[%d]: %w", i, err)
			}
			items = append(items, WithItem{Ctx: ctx, Binding: ri.Binding})
		}
		body, err := d.stmts(rs.Body)
		if err != nil {
			return nil, err
		}
		s.Kind, s.Data = StmtWith, WithData{Items: items, Body: body}
	case "assert":
		cond, err := d.expr(rs.Cond)
		if err != nil {
			return nil, err
		}
		msg, err := d.expr(rs.Msg)
		if err != nil {
			return nil, err
		}
		s.Kind, s.Data = StmtAssert, AssertData{Cond: cond, Msg: msg}
	case "delete":
		targets, err := d.exprs(rs.Targets)
		if err != nil {
			return nil, err
		}
		s.Kind, s.Data = StmtDelete, DeleteData{Targets: targets}
	case "global":
		s.Kind, s.Data = StmtGlobal, GlobalData{Names: rs.Names}
	default:
		return nil, fmt.Errorf("unknown stmt kind %q", rs.Kind)
	}
	return s, nil
}

type rawTarget struct {
	Kind   string            `json:"kind"`
	Name   string            `json:"name"`
	Object json.RawMessage   `json:"object"`
	Attr   string            `json:"attr"`
	Index  json.RawMessage   `json:"index"`
	Elems  []json.RawMessage `json:"elems"`
}

func (d *decoder) target(raw json.RawMessage) (*AssignTarget, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("missing assignment target")
	}
	var rt rawTarget
	if err := json.Unmarshal(raw, &rt); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	switch rt.Kind {
	case "symbol":
		return &AssignTarget{Kind: TargetSymbol, Name: rt.Name}, nil
	case "attribute":
		obj, err := d.expr(rt.Object)
		if err != nil {
			return nil, err
		}
		return &AssignTarget{Kind: TargetAttribute, Object: obj, Attr: rt.Attr}, nil
	case "index":
		obj, err := d.expr(rt.Object)
		if err != nil {
			return nil, err
		}
		idx, err := d.expr(rt.Index)
		if err != nil {
			return nil, err
		}
		return &AssignTarget{Kind: TargetIndex, Object: obj, Index: idx}, nil
	case "tuple":
		var elems []*AssignTarget
		for i, re := range rt.Elems {
			e, err := d.target(re)
			if err != nil {
				return nil, fmt.Errorf("elems[%d]: %w", i, err)
			}
			elems = append(elems, e)
		}
		return &AssignTarget{Kind: TargetTuple, Elems: elems}, nil
	default:
		return nil, fmt.Errorf("unknown target kind %q", rt.Kind)
	}
}

// Expressions ---------------------------------------------------------------

type rawExpr struct {
	Kind       string            `json:"kind"`
	Span       *rawSpan          `json:"span"`
	Type       json.RawMessage   `json:"type"`
	Lit        string            `json:"lit"`
	Int        int64             `json:"int"`
	Float      float64           `json:"float"`
	Bool       bool              `json:"bool"`
	Str        string            `json:"str"`
	Bytes      []byte            `json:"bytes"`
	Name       string            `json:"name"`
	Op         string            `json:"op"`
	Operand    json.RawMessage   `json:"operand"`
	Left       json.RawMessage   `json:"left"`
	Right      json.RawMessage   `json:"right"`
	Ops        []string          `json:"ops"`
	Operands   []json.RawMessage `json:"operands"`
	Values     []json.RawMessage `json:"values"`
	Func       string            `json:"func"`
	Args       []json.RawMessage `json:"args"`
	Object     json.RawMessage   `json:"object"`
	Method     string            `json:"method"`
	Attr       string            `json:"attr"`
	Index      json.RawMessage   `json:"index"`
	Start      json.RawMessage   `json:"start"`
	Stop       json.RawMessage   `json:"stop"`
	Step       json.RawMessage   `json:"step"`
	Elems      []json.RawMessage `json:"elems"`
	Entries    []rawDictEntry    `json:"entries"`
	Elem       json.RawMessage   `json:"elem"`
	Key        json.RawMessage   `json:"key"`
	Value      json.RawMessage   `json:"value"`
	Generators []rawGenerator    `json:"generators"`
	Params     []string          `json:"params"`
	Body       json.RawMessage   `json:"body"`
	Cond       json.RawMessage   `json:"cond"`
	Then       json.RawMessage   `json:"then"`
	Else       json.RawMessage   `json:"else"`
	Parts      []rawFStringPart  `json:"parts"`
}

type rawDictEntry struct {
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
}

type rawGenerator struct {
	Target json.RawMessage   `json:"target"`
	Iter   json.RawMessage   `json:"iter"`
	Conds  []json.RawMessage `json:"conds"`
}

type rawFStringPart struct {
	Text  string          `json:"text"`
	Value json.RawMessage `json:"value"`
	Spec  string          `json:"spec"`
}

func (d *decoder) exprs(raws []json.RawMessage) ([]*Expr, error) {
	out := make([]*Expr, 0, len(raws))
	for i, r := range raws {
		e, err := d.expr(r)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) expr(raw json.RawMessage) (*Expr, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var re rawExpr
	if err := json.Unmarshal(raw, &re); err != nil {
		return nil, fmt.Errorf("expr: %w", err)
	}
	e := &Expr{Span: d.span(re.Span)}
	var err error
	if e.Type, err = d.typ(re.Type); err != nil {
		return nil, err
	}
	if e.Type == nil {
		e.Type = types.Unknown()
	}
	switch re.Kind {
	case "literal":
		lit, err := decodeLiteral(re)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprLiteral, lit
	case "var":
		e.Kind, e.Data = ExprVar, VarData{Name: re.Name}
	case "unary":
		op, err := decodeUnaryOp(re.Op)
		if err != nil {
			return nil, err
		}
		operand, err := d.expr(re.Operand)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprUnary, UnaryData{Op: op, Operand: operand}
	case "binary":
		op, err := decodeBinOp(re.Op)
		if err != nil {
			return nil, err
		}
		left, err := d.expr(re.Left)
		if err != nil {
			return nil, err
		}
		right, err := d.expr(re.Right)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprBinary, BinaryData{Op: op, Left: left, Right: right}
	case "compare":
		ops := make([]CmpOp, 0, len(re.Ops))
		for _, s := range re.Ops {
			op, err := decodeCmpOp(s)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		}
		operands, err := d.exprs(re.Operands)
		if err != nil {
			return nil, err
		}
		if len(operands) != len(ops)+1 {
			return nil, fmt.Errorf("compare: %d operators need %d operands, got %d", len(ops), len(ops)+1, len(operands))
		}
		e.Kind, e.Data = ExprCompare, CompareData{Ops: ops, Operands: operands}
	case "boolop":
		var op BoolOpKind
		switch re.Op {
		case "and":
			op = BoolAnd
		case "or":
			op = BoolOr
		default:
			return nil, fmt.Errorf("unknown bool op %q", re.Op)
		}
		values, err := d.exprs(re.Values)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprBoolOp, BoolOpData{Op: op, Values: values}
	case "call":
		args, err := d.exprs(re.Args)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprCall, CallData{Func: re.Func, Args: args}
	case "method_call":
		obj, err := d.expr(re.Object)
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(re.Args)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprMethodCall, MethodCallData{Object: obj, Method: re.Method, Args: args}
	case "attribute":
		obj, err := d.expr(re.Object)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprAttribute, AttributeData{Object: obj, Attr: re.Attr}
	case "index":
		obj, err := d.expr(re.Object)
		if err != nil {
			return nil, err
		}
		idx, err := d.expr(re.Index)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprIndex, IndexData{Object: obj, Index: idx}
	case "slice":
		obj, err := d.expr(re.Object)
		if err != nil {
			return nil, err
		}
		start, err := d.expr(re.Start)
		if err != nil {
			return nil, err
		}
		stop, err := d.expr(re.Stop)
		if err != nil {
			return nil, err
		}
		step, err := d.expr(re.Step)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprSlice, SliceData{Object: obj, Start: start, Stop: stop, Step: step}
	case "list", "tuple", "set", "frozenset":
		elems, err := d.exprs(re.Elems)
		if err != nil {
			return nil, err
		}
		switch re.Kind {
		case "list":
			e.Kind, e.Data = ExprList, ListData{Elems: elems}
		case "tuple":
			e.Kind, e.Data = ExprTuple, TupleData{Elems: elems}
		case "set":
			e.Kind, e.Data = ExprSet, SetData{Elems: elems}
		default:
			e.Kind, e.Data = ExprFrozenSet, SetData{Elems: elems}
		}
	case "dict":
		var entries []DictEntry
		for i, rent := range re.Entries {
			k, err := d.expr(rent.Key)
			if err != nil {
				return nil, fmt.Errorf("entries[%d]: %w", i, err)
			}
			v, err := d.expr(rent.Value)
			if err != nil {
				return nil, fmt.Errorf("entries[%d]: %w", i, err)
			}
			entries = append(entries, DictEntry{Key: k, Value: v})
		}
		e.Kind, e.Data = ExprDict, DictData{Entries: entries}
	case "list_comp", "set_comp", "genexp":
		elem, err := d.expr(re.Elem)
		if err != nil {
			return nil, err
		}
		gens, err := d.generators(re.Generators)
		if err != nil {
			return nil, err
		}
		switch re.Kind {
		case "list_comp":
			e.Kind = ExprListComp
		case "set_comp":
			e.Kind = ExprSetComp
		default:
			e.Kind = ExprGenExp
		}
		e.Data = CompData{Elem: elem, Generators: gens}
	case "dict_comp":
		key, err := d.expr(re.Key)
		if err != nil {
			return nil, err
		}
		value, err := d.expr(re.Value)
		if err != nil {
			return nil, err
		}
		gens, err := d.generators(re.Generators)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprDictComp, DictCompData{Key: key, Value: value, Generators: gens}
	case "lambda":
		body, err := d.expr(re.Body)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprLambda, LambdaData{Params: re.Params, Body: body}
	case "conditional":
		cond, err := d.expr(re.Cond)
		if err != nil {
			return nil, err
		}
		then, err := d.expr(re.Then)
		if err != nil {
			return nil, err
		}
		els, err := d.expr(re.Else)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprConditional, ConditionalData{Cond: cond, Then: then, Else: els}
	case "fstring":
		var parts []FStringPart
		for i, rp := range re.Parts {
			v, err := d.expr(rp.Value)
			if err != nil {
				return nil, fmt.Errorf("parts[%d]: %w", i, err)
			}
			parts = append(parts, FStringPart{Text: rp.Text, Value: v, Spec: rp.Spec})
		}
		e.Kind, e.Data = ExprFString, FStringData{Parts: parts}
	case "walrus":
		value, err := d.expr(re.Value)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprWalrus, WalrusData{Name: re.Name, Value: value}
	case "starred":
		value, err := d.expr(re.Value)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprStarred, StarredData{Value: value}
	case "yield":
		value, err := d.expr(re.Value)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprYield, YieldData{Value: value}
	case "await":
		value, err := d.expr(re.Value)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = ExprAwait, AwaitData{Value: value}
	default:
		return nil, fmt.Errorf("unknown expr kind %q", re.Kind)
	}
	return e, nil
}

func (d *decoder) generators(raws []rawGenerator) ([]Generator, error) {
	var out []Generator
	for i, rg := range raws {
		target, err := d.target(rg.Target)
		if err != nil {
			return nil, fmt.Errorf("generators[%d]: %w", i, err)
		}
		iter, err := d.expr(rg.Iter)
		if err != nil {
			return nil, fmt.Errorf("generators[%d]: %w", i, err)
		}
		conds, err := d.exprs(rg.Conds)
		if err != nil {
			return nil, fmt.Errorf("generators[%d]: %w", i, err)
		}
		out = append(out, Generator{Target: target, Iter: iter, Conds: conds})
	}
	return out, nil
}

func decodeLiteral(re rawExpr) (LiteralData, error) {
	switch re.Lit {
	case "int":
		return LiteralData{Kind: LitInt, IntValue: re.Int}, nil
	case "float":
		return LiteralData{Kind: LitFloat, FloatValue: re.Float}, nil
	case "bool":
		return LiteralData{Kind: LitBool, BoolValue: re.Bool}, nil
	case "str":
		return LiteralData{Kind: LitString, StringValue: re.Str}, nil
	case "bytes":
		return LiteralData{Kind: LitBytes, BytesValue: re.Bytes}, nil
	case "none":
		return LiteralData{Kind: LitNone}, nil
	default:
		return LiteralData{}, fmt.Errorf("unknown literal kind %q", re.Lit)
	}
}

func decodeBinOp(s string) (BinOp, error) {
	switch s {
	case "+":
		return OpAdd, nil
	case "-":
		return OpSub, nil
	case "*":
		return OpMul, nil
	case "/":
		return OpDiv, nil
	case "//":
		return OpFloorDiv, nil
	case "%":
		return OpMod, nil
	case "**":
		return OpPow, nil
	case "@":
		return OpMatMul, nil
	case "&":
		return OpBitAnd, nil
	case "|":
		return OpBitOr, nil
	case "^":
		return OpBitXor, nil
	case "<<":
		return OpLShift, nil
	case ">>":
		return OpRShift, nil
	default:
		return 0, fmt.Errorf("unknown binary op %q", s)
	}
}

func decodeUnaryOp(s string) (UnaryOp, error) {
	switch s {
	case "not":
		return OpNot, nil
	case "-":
		return OpNeg, nil
	case "+":
		return OpPos, nil
	case "~":
		return OpBitNot, nil
	default:
		return 0, fmt.Errorf("unknown unary op %q", s)
	}
}

func decodeCmpOp(s string) (CmpOp, error) {
	switch s {
	case "==":
		return CmpEq, nil
	case "!=":
		return CmpNotEq, nil
	case "<":
		return CmpLt, nil
	case "<=":
		return CmpLtEq, nil
	case ">":
		return CmpGt, nil
	case ">=":
		return CmpGtEq, nil
	case "is":
		return CmpIs, nil
	case "is not":
		return CmpIsNot, nil
	case "in":
		return CmpIn, nil
	case "not in":
		return CmpNotIn, nil
	default:
		return 0, fmt.Errorf("unknown comparison op %q", s)
	}
}
