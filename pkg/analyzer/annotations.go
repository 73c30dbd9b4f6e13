package analyzer

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/ssa"

	"github.com/pravinparker/infer/pkg/ir"
	"github.com/pravinparker/infer/pkg/starvation"
)

// annotations holds the //infer: directives parsed from the package
// being analyzed, keyed by the SSA function they annotate.
type annotations struct {
	mainthread   map[*ssa.Function]bool
	lockless     map[*ssa.Function]bool
	nonblocking  map[*ssa.Function]bool
	synchronized map[*ssa.Function]bool
	skip         map[*ssa.Function]bool
}

// ifaceMethod names an interface method carrying a lockless directive.
type ifaceMethod struct {
	iface  string
	method string
}

// parseAnnotations scans declaration comments for //infer: directives.
// A directive on an interface method propagates to every in-package
// implementation of that interface.
func (st *passState) parseAnnotations() {
	st.ann = &annotations{
		mainthread:   make(map[*ssa.Function]bool),
		lockless:     make(map[*ssa.Function]bool),
		nonblocking:  make(map[*ssa.Function]bool),
		synchronized: make(map[*ssa.Function]bool),
		skip:         make(map[*ssa.Function]bool),
	}
	var marked []ifaceMethod
	for _, file := range st.pass.Files {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				st.parseFuncDirectives(d)
			case *ast.GenDecl:
				marked = append(marked, interfaceDirectives(d)...)
			}
		}
	}
	st.applyInterfaceLockless(marked)
}

func (st *passState) parseFuncDirectives(fd *ast.FuncDecl) {
	dirs := directives(fd.Doc)
	if len(dirs) == 0 {
		return
	}
	fn := st.funcFor(fd)
	if fn == nil {
		return
	}
	for _, dir := range dirs {
		switch dir {
		case "mainthread":
			st.ann.mainthread[fn] = true
		case "lockless":
			st.ann.lockless[fn] = true
		case "nonblocking":
			st.ann.nonblocking[fn] = true
		case "synchronized":
			st.ann.synchronized[fn] = true
		case "skip":
			st.ann.skip[fn] = true
		default:
			log.Debugf("ignoring unknown directive //infer:%s on %s", dir, fn)
		}
	}
}

// interfaceDirectives collects lockless directives attached to
// interface method declarations.
func interfaceDirectives(gd *ast.GenDecl) []ifaceMethod {
	if gd.Tok != token.TYPE {
		return nil
	}
	var out []ifaceMethod
	for _, spec := range gd.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		it, ok := ts.Type.(*ast.InterfaceType)
		if !ok {
			continue
		}
		for _, field := range it.Methods.List {
			if len(field.Names) == 0 {
				continue
			}
			for _, dir := range append(directives(field.Doc), directives(field.Comment)...) {
				if dir == "lockless" {
					out = append(out, ifaceMethod{iface: ts.Name.Name, method: field.Names[0].Name})
				}
			}
		}
	}
	return out
}

// applyInterfaceLockless marks every source method implementing an
// annotated interface method.
func (st *passState) applyInterfaceLockless(marked []ifaceMethod) {
	for _, im := range marked {
		obj, ok := st.pass.Pkg.Scope().Lookup(im.iface).(*types.TypeName)
		if !ok {
			continue
		}
		iface, ok := obj.Type().Underlying().(*types.Interface)
		if !ok {
			continue
		}
		for _, fn := range st.srcFuncs {
			recv := fn.Signature.Recv()
			if recv == nil || fn.Name() != im.method {
				continue
			}
			if types.Implements(recv.Type(), iface) {
				st.ann.lockless[fn] = true
			}
		}
	}
}

// directives extracts the directive words of //infer: comments in a
// comment group.
func directives(cg *ast.CommentGroup) []string {
	if cg == nil {
		return nil
	}
	var out []string
	for _, c := range cg.List {
		text := strings.TrimPrefix(c.Text, "//")
		if !strings.HasPrefix(text, "infer:") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(text, "infer:"))
		if len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}

// funcFor maps a declaration to its SSA function by position.
func (st *passState) funcFor(fd *ast.FuncDecl) *ssa.Function {
	for _, fn := range st.srcFuncs {
		if fn.Pos() == fd.Name.Pos() {
			return fn
		}
	}
	return nil
}

// procAnnotations answers the engine's annotation queries from parsed
// directives, config lists and the propagated main-thread marks.
type procAnnotations struct {
	lockless    map[string]bool
	nonblocking map[string]bool
	ui          map[string]starvation.UIExplanation
}

func (st *passState) annotator() *procAnnotations {
	a := &procAnnotations{
		lockless:    make(map[string]bool),
		nonblocking: make(map[string]bool),
		ui:          st.uiMarks,
	}
	for fn := range st.ann.lockless {
		a.lockless[fn.String()] = true
	}
	for fn := range st.ann.nonblocking {
		a.nonblocking[fn.String()] = true
	}
	for _, name := range st.cfg.Lockless {
		a.lockless[name] = true
	}
	for _, name := range st.cfg.NonBlocking {
		a.nonblocking[name] = true
	}
	return a
}

func (a *procAnnotations) Lockless(p ir.ProcName) bool {
	return a.lockless[p.Qualified]
}

func (a *procAnnotations) NonBlocking(p ir.ProcName) bool {
	return a.nonblocking[p.Qualified]
}

func (a *procAnnotations) UIThread(p ir.ProcName) (starvation.UIExplanation, bool) {
	expl, ok := a.ui[p.Qualified]
	return expl, ok
}
