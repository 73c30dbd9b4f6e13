package starvation

import (
	"testing"

	"github.com/pravinparker/infer/pkg/ir"
)

func starveAt(line int, prio int, msg string) candidate {
	return candidate{
		kind: IssueStarvation,
		sev:  SevHigh,
		loc:  loc(line),
		msg:  msg,
		prio: prio,
	}
}

func TestReportMapDedupKeepsHighestPriority(t *testing.T) {
	rm := newReportMap()
	rm.add(starveAt(10, 2, "shallow"))
	rm.add(starveAt(10, 5, "deep"))
	rm.add(starveAt(10, 3, "middle"))

	sink := new(Collector)
	rm.emit(sink, procName("Scan"), true)

	reports := sink.Sorted()
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1: %+v", len(reports), reports)
	}
	want := "deep (2 similar report(s) suppressed at this location)"
	if reports[0].Msg != want {
		t.Errorf("msg = %q, want %q", reports[0].Msg, want)
	}
}

func TestReportMapDedupTieBreaksOnMessage(t *testing.T) {
	rm := newReportMap()
	rm.add(starveAt(10, 4, "beta"))
	rm.add(starveAt(10, 4, "alpha"))

	sink := new(Collector)
	rm.emit(sink, procName("Scan"), true)

	reports := sink.Sorted()
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1: %+v", len(reports), reports)
	}
	want := "alpha (1 similar report(s) suppressed at this location)"
	if reports[0].Msg != want {
		t.Errorf("msg = %q, want %q", reports[0].Msg, want)
	}
}

func TestReportMapDedupOff(t *testing.T) {
	rm := newReportMap()
	rm.add(starveAt(10, 2, "shallow"))
	rm.add(starveAt(10, 5, "deep"))
	rm.add(starveAt(10, 3, "middle"))

	sink := new(Collector)
	rm.emit(sink, procName("Scan"), false)

	got := make([]string, len(sink.reports))
	for i, r := range sink.reports {
		got[i] = r.Msg
	}
	want := []string{"deep", "middle", "shallow"}
	if len(got) != len(want) {
		t.Fatalf("got %d reports, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReportMapEmitOrder(t *testing.T) {
	rm := newReportMap()
	rm.add(candidate{kind: IssueStrictMode, sev: SevMedium, loc: loc(5), msg: "strict at five", prio: 1})
	rm.add(candidate{kind: IssueDeadlock, sev: SevHigh, loc: loc(5), msg: "deadlock at five", prio: 1})
	rm.add(candidate{kind: IssueDeadlock, sev: SevHigh, loc: loc(3), msg: "deadlock at three", prio: 1})

	sink := new(Collector)
	rm.emit(sink, procName("Scan"), true)

	got := make([]string, len(sink.reports))
	for i, r := range sink.reports {
		got[i] = r.Msg
	}
	want := []string{"deadlock at three", "deadlock at five", "strict at five"}
	if len(got) != len(want) {
		t.Fatalf("got %d reports, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCollectorSorted(t *testing.T) {
	c := new(Collector)
	c.Report(Report{Loc: ir.Location{File: "b.go", Line: 1}, Kind: IssueDeadlock, Msg: "second"})
	c.Report(Report{Loc: ir.Location{File: "a.go", Line: 9}, Kind: IssueStarvation, Msg: "first"})
	c.Report(Report{Loc: ir.Location{File: "b.go", Line: 1}, Kind: IssueDeadlock, Msg: "third"})

	got := c.Sorted()
	if len(got) != 3 {
		t.Fatalf("got %d reports, want 3", len(got))
	}
	if got[0].Msg != "first" || got[1].Msg != "second" || got[2].Msg != "third" {
		t.Errorf("order = %q, %q, %q", got[0].Msg, got[1].Msg, got[2].Msg)
	}
}
