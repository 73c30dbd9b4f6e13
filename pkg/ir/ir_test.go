package ir

import (
	"slices"
	"testing"
)

func TestTypeNameString(t *testing.T) {
	tests := []struct {
		name TypeName
		want string
	}{
		{TypeName{}, "<none>"},
		{TypeName{Pkg: "net/http"}, "net/http"},
		{TypeName{Pkg: "sync", Name: "Mutex"}, "sync.Mutex"},
	}
	for _, tt := range tests {
		if got := tt.name.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestTypeNameCompare(t *testing.T) {
	ordered := []TypeName{
		{},
		{Pkg: "app"},
		{Pkg: "app", Name: "Widget"},
		{Pkg: "lib", Name: "Conn"},
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Compare(ordered[i]) >= 0 {
			t.Errorf("Compare(%v, %v) >= 0, want < 0", ordered[i-1], ordered[i])
		}
		if ordered[i].Compare(ordered[i]) != 0 {
			t.Errorf("Compare(%v, itself) != 0", ordered[i])
		}
	}
}

func TestLocationCompare(t *testing.T) {
	ordered := []Location{
		{File: "a.go", Line: 10},
		{File: "a.go", Line: 20},
		{File: "b.go", Line: 1},
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Compare(ordered[i]) >= 0 {
			t.Errorf("Compare(%v, %v) >= 0, want < 0", ordered[i-1], ordered[i])
		}
	}
	if got := (Location{File: "a.go", Line: 7}).String(); got != "a.go:7" {
		t.Errorf("String() = %q, want %q", got, "a.go:7")
	}
	if got := (Location{}).String(); got != "<unknown>" {
		t.Errorf("String() = %q, want %q", got, "<unknown>")
	}
}

func TestExpString(t *testing.T) {
	plain := Exp{Root: RootParam, Name: "w"}
	if got := plain.String(); got != "w" {
		t.Errorf("String() = %q, want %q", got, "w")
	}
	nested := Exp{Root: RootParam, Name: "w", Path: []string{"inner", "mu"}}
	if got := nested.String(); got != "w.inner.mu" {
		t.Errorf("String() = %q, want %q", got, "w.inner.mu")
	}
}

func TestProgramNamesSorted(t *testing.T) {
	prog := NewProgram()
	for _, q := range []string{"app.c", "app.a", "app.b"} {
		prog.Add(&Procedure{Name: ProcName{Qualified: q, Short: q}})
	}
	var got []string
	for _, name := range prog.Names() {
		got = append(got, name.Qualified)
	}
	want := []string{"app.a", "app.b", "app.c"}
	if !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if prog.Len() != 3 {
		t.Errorf("Len() = %d, want 3", prog.Len())
	}
	if _, ok := prog.Proc(ProcName{Qualified: "app.b", Short: "app.b"}); !ok {
		t.Error("Proc(app.b) not found")
	}
}
