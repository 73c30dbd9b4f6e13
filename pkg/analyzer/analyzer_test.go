package analyzer_test

import (
	"testing"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/pravinparker/infer/pkg/analyzer"
)

// singlePkgAnalyzer wraps the real analyzer without FactTypes, so
// single-package tests skip fact export and their fixtures need no
// fact expectations. The cross-package test runs the real Analyzer.
var singlePkgAnalyzer = &analysis.Analyzer{
	Name:     analyzer.Analyzer.Name,
	Doc:      analyzer.Analyzer.Doc,
	Run:      analyzer.Analyzer.Run,
	Requires: analyzer.Analyzer.Requires,
}

func TestDeadlock(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, singlePkgAnalyzer, "deadlock")
}

func TestSelfDeadlock(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, singlePkgAnalyzer, "selfdeadlock")
}

func TestMainThread(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, singlePkgAnalyzer, "mainthread")
}

func TestLockless(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, singlePkgAnalyzer, "lockless")
}

func TestNonBlocking(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, singlePkgAnalyzer, "nonblocking")
}

func TestStrictMode(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, singlePkgAnalyzer, "strict")
}

func TestSyncWrappers(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, singlePkgAnalyzer, "syncwrapper")
}

func TestGlobals(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, singlePkgAnalyzer, "globals")
}

func TestLockOSThread(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, singlePkgAnalyzer, "lockos")
}

func TestSynchronized(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, singlePkgAnalyzer, "synchronized")
}

func TestEmbedded(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, singlePkgAnalyzer, "embedded")
}

func TestQuiet(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, singlePkgAnalyzer, "quiet")
}

func TestCrossPackage(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, analyzer.Analyzer, "crosspackage/pkga", "crosspackage/pkgb")
}
