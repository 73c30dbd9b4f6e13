package analyzer

import (
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/ssa"

	"github.com/pravinparker/infer/pkg/ir"
)

// translate lowers every source function of the pass, anonymous
// functions included, into the program the engine analyzes.
func (st *passState) translate() {
	st.prog = ir.NewProgram()
	st.objects = make(map[string]*types.Func)
	for _, fn := range st.srcFuncs {
		proc := st.lowerFunction(fn)
		st.prog.Add(proc)
		if obj, ok := fn.Object().(*types.Func); ok {
			st.objects[proc.Name.Qualified] = obj
		}
	}
}

func (st *passState) lowerFunction(fn *ssa.Function) *ir.Procedure {
	proc := &ir.Procedure{
		Name:         procName(fn),
		Class:        st.ownerClass(fn),
		Loc:          st.location(fn.Pos()),
		Private:      st.ann.skip[fn],
		Generated:    fn.Synthetic != "",
		Initializer:  isInitializer(fn),
		Constructor:  st.isConstructor(fn),
		Synchronized: st.ann.synchronized[fn],
		Static:       fn.Signature.Recv() == nil,
	}
	if fn.Signature.Recv() != nil && len(fn.Params) > 0 {
		proc.Recv = &ir.Exp{Root: ir.RootParam, Name: fn.Params[0].Name(), Owner: proc.Class}
	}
	for _, b := range fn.Blocks {
		proc.Blocks = append(proc.Blocks, st.lowerBlock(b))
	}
	return proc
}

func (st *passState) lowerBlock(b *ssa.BasicBlock) *ir.Block {
	out := &ir.Block{Index: b.Index}
	for _, s := range b.Succs {
		out.Succs = append(out.Succs, s.Index)
	}
	for _, instr := range b.Instrs {
		switch call := instr.(type) {
		case *ssa.Call:
			if ins := st.lowerCall(call.Common(), call.Pos()); ins != nil {
				out.Instrs = append(out.Instrs, ins)
			}
		case *ssa.Defer:
			// A deferred unlock releases only on return, so the lock
			// stays held through the body, which is exactly the
			// context the blocking events need. Lock operations in
			// defers are dropped; everything else is modeled at the
			// defer site.
			ins := st.lowerCall(call.Common(), call.Pos())
			if ins == nil {
				continue
			}
			if c, ok := ins.(ir.Call); ok && st.models.lockFamily(c.Callee.Qualified) {
				continue
			}
			out.Instrs = append(out.Instrs, ins)
		}
	}
	return out
}

// lowerCall translates one call site. Interface invokes keep the
// interface method identity, static calls the callee's. Dynamic calls
// through values lower to an identity step.
func (st *passState) lowerCall(common *ssa.CallCommon, pos token.Pos) ir.Instr {
	loc := st.location(pos)
	if common.IsInvoke() {
		callee := ir.ProcName{
			Qualified: "(" + types.TypeString(common.Value.Type(), nil) + ")." + common.Method.Name(),
			Short:     common.Method.Name(),
		}
		args := make([]ir.Exp, 0, len(common.Args)+1)
		args = append(args, st.resolveExp(common.Value))
		for _, a := range common.Args {
			args = append(args, st.resolveExp(a))
		}
		return ir.Call{Callee: callee, Args: args, Loc: loc}
	}
	if _, ok := common.Value.(*ssa.Builtin); ok {
		return nil
	}
	callee := common.StaticCallee()
	if callee == nil {
		return ir.IndirectCall{Loc: loc}
	}
	name := procName(callee)
	if rewritten, ok := promotedMutexCallee(callee, common.Args); ok {
		name = ir.ProcName{Qualified: rewritten, Short: callee.Name()}
	}
	args := make([]ir.Exp, len(common.Args))
	for i, a := range common.Args {
		args[i] = st.resolveExp(a)
	}
	return ir.Call{Callee: name, Args: args, Loc: loc}
}

// promotedMutexCallee rewrites a call to the promotion wrapper of an
// embedded mutex into the underlying sync method, so the lock tables
// match it by name. The receiver argument still resolves through the
// embedded field, which the path collapse folds onto the enclosing
// struct.
func promotedMutexCallee(callee *ssa.Function, args []ssa.Value) (string, bool) {
	if callee.Synthetic == "" || !isLockMethodName(callee.Name()) || len(args) == 0 {
		return "", false
	}
	recv := args[0].Type()
	if ptr, ok := recv.(*types.Pointer); ok {
		recv = ptr.Elem()
	}
	str, ok := recv.Underlying().(*types.Struct)
	if !ok {
		return "", false
	}
	for i := 0; i < str.NumFields(); i++ {
		f := str.Field(i)
		if !f.Anonymous() || !isMutexType(f.Type()) {
			continue
		}
		if isRWOnlyMethodName(callee.Name()) && !isRWMutexType(f.Type()) {
			continue
		}
		return "(*" + types.TypeString(f.Type(), nil) + ")." + callee.Name(), true
	}
	return "", false
}

func isLockMethodName(name string) bool {
	switch name {
	case "Lock", "Unlock", "RLock", "RUnlock", "TryLock", "TryRLock":
		return true
	}
	return false
}

func isRWOnlyMethodName(name string) bool {
	switch name {
	case "RLock", "RUnlock", "TryRLock":
		return true
	}
	return false
}

func procName(fn *ssa.Function) ir.ProcName {
	return ir.ProcName{Qualified: fn.String(), Short: fn.Name()}
}

func isInitializer(fn *ssa.Function) bool {
	return fn.Name() == "init" || strings.HasPrefix(fn.Name(), "init#")
}

// ownerClass is the named receiver type for methods and the package
// pseudo-class for everything else, so free functions of one package
// are siblings for lock inference.
func (st *passState) ownerClass(fn *ssa.Function) ir.TypeName {
	if recv := fn.Signature.Recv(); recv != nil {
		if named := namedOf(recv.Type()); named != nil {
			return typeName(named)
		}
		return ir.TypeName{}
	}
	return ir.TypeName{Pkg: st.pass.Pkg.Path()}
}

// isConstructor marks functions that build and return a value of an
// own-package type under a constructor-style name. Hazards inside
// them are charged to call sites instead.
func (st *passState) isConstructor(fn *ssa.Function) bool {
	if fn.Signature.Recv() != nil {
		return false
	}
	name := fn.Name()
	if !strings.HasPrefix(name, "New") && !strings.HasPrefix(name, "Make") && !strings.HasPrefix(name, "Create") {
		return false
	}
	results := fn.Signature.Results()
	for i := 0; i < results.Len(); i++ {
		if named := namedOf(results.At(i).Type()); named != nil && named.Obj().Pkg() == st.pass.Pkg {
			return true
		}
	}
	return false
}

func (st *passState) location(pos token.Pos) ir.Location {
	if !pos.IsValid() {
		return ir.Location{}
	}
	p := st.pass.Fset.Position(pos)
	return ir.Location{Pos: pos, File: p.Filename, Line: p.Line}
}
