package analyzer

import (
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"

	"github.com/pravinparker/infer/pkg/ir"
)

// resolveExp traces an SSA value back to an access expression the
// domain derives locks from. Field selections build the path, with
// embedded fields collapsed so a promoted mutex and its enclosing
// struct resolve to the same expression. Values that do not reach a
// parameter or global root come back local-rooted.
func (st *passState) resolveExp(v ssa.Value) ir.Exp {
	v = canonicalBase(v)
	var path []string
	for {
		switch sel := v.(type) {
		case *ssa.FieldAddr:
			if f := fieldAddrField(sel); f != nil && !f.Anonymous() {
				path = append([]string{f.Name()}, path...)
			}
			v = canonicalBase(sel.X)
			continue
		case *ssa.Field:
			if f := fieldField(sel); f != nil && !f.Anonymous() {
				path = append([]string{f.Name()}, path...)
			}
			v = canonicalBase(sel.X)
			continue
		}
		break
	}
	switch root := v.(type) {
	case *ssa.Parameter:
		return ir.Exp{Root: ir.RootParam, Name: root.Name(), Path: path, Owner: st.paramOwner(root)}
	case *ssa.Global:
		return ir.Exp{Root: ir.RootGlobal, Name: root.Name(), Path: path, Owner: globalOwner(root)}
	}
	return ir.Exp{Root: ir.RootLocal, Name: v.Name(), Path: path}
}

// canonicalBase strips the SSA spellings that hide the logical object:
// uniform phi nodes from control-flow joins and loads of an address
// already in hand.
func canonicalBase(v ssa.Value) ssa.Value {
	v = unwrapUniformPhi(v)
	seen := make(map[ssa.Value]bool)
	for {
		if seen[v] {
			return v
		}
		seen[v] = true
		load, ok := v.(*ssa.UnOp)
		if !ok || load.Op != token.MUL {
			return v
		}
		v = unwrapUniformPhi(load.X)
	}
}

// unwrapUniformPhi resolves a phi whose incoming edges all reduce to
// one value. Loops make phis cyclic, so visited nodes stop the walk.
func unwrapUniformPhi(v ssa.Value) ssa.Value {
	return unwrapPhi(v, make(map[*ssa.Phi]bool))
}

func unwrapPhi(v ssa.Value, visited map[*ssa.Phi]bool) ssa.Value {
	for {
		phi, ok := v.(*ssa.Phi)
		if !ok || visited[phi] {
			return v
		}
		visited[phi] = true
		var unique ssa.Value
		for _, edge := range phi.Edges {
			edge = unwrapPhi(edge, visited)
			if unique == nil {
				unique = edge
			} else if unique != edge {
				return v
			}
		}
		if unique == nil {
			return v
		}
		v = unique
	}
}

func fieldAddrField(sel *ssa.FieldAddr) *types.Var {
	ptr, ok := sel.X.Type().Underlying().(*types.Pointer)
	if !ok {
		return nil
	}
	str, ok := ptr.Elem().Underlying().(*types.Struct)
	if !ok || sel.Field >= str.NumFields() {
		return nil
	}
	return str.Field(sel.Field)
}

func fieldField(sel *ssa.Field) *types.Var {
	str, ok := sel.X.Type().Underlying().(*types.Struct)
	if !ok || sel.Field >= str.NumFields() {
		return nil
	}
	return str.Field(sel.Field)
}

// paramOwner names the class a parameter-rooted expression belongs to:
// the parameter's named type, or the package pseudo-class when the
// type is unnamed.
func (st *passState) paramOwner(p *ssa.Parameter) ir.TypeName {
	if named := namedOf(p.Type()); named != nil {
		return typeName(named)
	}
	return ir.TypeName{Pkg: st.pass.Pkg.Path()}
}

// globalOwner is the pseudo-class of the declaring package. The
// variable name itself identifies the object across procedures.
func globalOwner(g *ssa.Global) ir.TypeName {
	if g.Pkg != nil {
		return ir.TypeName{Pkg: g.Pkg.Pkg.Path()}
	}
	return ir.TypeName{}
}

func namedOf(t types.Type) *types.Named {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, _ := t.(*types.Named)
	return named
}

func typeName(named *types.Named) ir.TypeName {
	obj := named.Obj()
	tn := ir.TypeName{Name: obj.Name()}
	if obj.Pkg() != nil {
		tn.Pkg = obj.Pkg().Path()
	}
	return tn
}

func isMutexType(t types.Type) bool {
	return isNamedSyncType(t, "Mutex") || isNamedSyncType(t, "RWMutex")
}

func isRWMutexType(t types.Type) bool {
	return isNamedSyncType(t, "RWMutex")
}

func isNamedSyncType(t types.Type, name string) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj != nil && obj.Pkg() != nil && obj.Pkg().Path() == "sync" && obj.Name() == name
}
