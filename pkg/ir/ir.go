// Package ir defines the intermediate representation the concurrency
// analysis consumes: procedures made of basic blocks of instructions,
// plus the access expressions lock identities are derived from.
// Frontends lower their native representation into this package; the
// analysis core never inspects anything richer.
package ir

import (
	"cmp"
	"fmt"
	"go/token"
	"slices"
	"strings"
)

// TypeName identifies the class that owns a lock or a procedure: a
// named type, or a whole package when Name is empty (package-level
// state and free functions share the package as their owner scope).
type TypeName struct {
	Pkg  string
	Name string
}

// IsZero reports whether no owner is known.
func (t TypeName) IsZero() bool { return t.Pkg == "" && t.Name == "" }

func (t TypeName) String() string {
	switch {
	case t.IsZero():
		return "<none>"
	case t.Name == "":
		return t.Pkg
	}
	return t.Pkg + "." + t.Name
}

// Compare orders type names lexicographically, package first.
func (t TypeName) Compare(o TypeName) int {
	if c := strings.Compare(t.Pkg, o.Pkg); c != 0 {
		return c
	}
	return strings.Compare(t.Name, o.Name)
}

// ProcName names a procedure. Qualified must be unique across the
// program under analysis; Short is what report messages call it.
type ProcName struct {
	Qualified string
	Short     string
}

func (p ProcName) String() string { return p.Qualified }

// IsZero reports an absent procedure identity, such as the callee of a
// dynamic call.
func (p ProcName) IsZero() bool { return p.Qualified == "" }

// Location is a source position. Pos is valid only when the procedure
// was lowered from parsed source; File and Line are always set so that
// synthetic procedures built in tests still render usable positions.
type Location struct {
	Pos  token.Pos
	File string
	Line int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Compare orders locations by file then line.
func (l Location) Compare(o Location) int {
	if c := strings.Compare(l.File, o.File); c != 0 {
		return c
	}
	return cmp.Compare(l.Line, o.Line)
}

// Root classifies the base of an access expression.
type Root uint8

const (
	// RootLocal is a procedure-local value. Locks are never derived
	// from locals; the variant exists so frontends can lower every
	// operand and leave the filtering to the core.
	RootLocal Root = iota
	// RootParam is a formal parameter of the enclosing procedure.
	RootParam
	// RootGlobal is a package-level variable.
	RootGlobal
)

// Exp is an access expression: a root plus a normalized field path.
// Frontends canonicalize the path (promoted fields collapsed) so that
// different spellings of one object compare equal.
type Exp struct {
	Root  Root
	Name  string   // parameter name, or qualified name of the global
	Path  []string // field selections applied to the root
	Owner TypeName // named type (or package) owning the root
}

func (e Exp) String() string {
	if len(e.Path) == 0 {
		return e.Name
	}
	return e.Name + "." + strings.Join(e.Path, ".")
}

// Instr is one IR instruction. The set is closed: the analysis
// dispatches on the concrete type and treats anything else as a no-op.
type Instr interface{ instr() }

// Call invokes a procedure known by name. Args are positional, with
// the receiver first for methods.
type Call struct {
	Callee ProcName
	Args   []Exp
	Loc    Location
}

// IndirectCall invokes a dynamic function value. No callee identity is
// available, so no summary can be consulted.
type IndirectCall struct {
	Loc Location
}

// Assign and Assume carry nothing the analysis uses; they are identity
// transforms kept so lowering can stay total.
type Assign struct{}

type Assume struct{}

// Metadata marks compiler bookkeeping.
type Metadata struct{}

func (Call) instr()         {}
func (IndirectCall) instr() {}
func (Assign) instr()       {}
func (Assume) instr()       {}
func (Metadata) instr()     {}

// Block is a basic block. Succs index into Procedure.Blocks.
type Block struct {
	Index  int
	Instrs []Instr
	Succs  []int
}

// Procedure is a lowered procedure body plus the attributes the
// analysis keys off. Blocks[0] is the entry block.
type Procedure struct {
	Name   ProcName
	Class  TypeName // owner class; zero when unknown
	Loc    Location
	Recv   *Exp // receiver expression for methods, nil otherwise
	Blocks []*Block

	Private      bool // never analyzed or reported on
	Generated    bool // compiler-generated
	Initializer  bool // package or class initializer
	Constructor  bool // constructor-like; starvation blames callers instead
	Synchronized bool // body runs holding its receiver (or class) lock
	Static       bool // no receiver
}

// Program is the unit the whole-program passes run over.
type Program struct {
	procs map[ProcName]*Procedure
}

func NewProgram() *Program {
	return &Program{procs: make(map[ProcName]*Procedure)}
}

func (p *Program) Add(proc *Procedure) { p.procs[proc.Name] = proc }

func (p *Program) Proc(name ProcName) (*Procedure, bool) {
	proc, ok := p.procs[name]
	return proc, ok
}

func (p *Program) Len() int { return len(p.procs) }

// Names returns every procedure name in deterministic order.
func (p *Program) Names() []ProcName {
	names := make([]ProcName, 0, len(p.procs))
	for name := range p.procs {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b ProcName) int {
		return strings.Compare(a.Qualified, b.Qualified)
	})
	return names
}
