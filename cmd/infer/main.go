package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/pravinparker/infer/pkg/analyzer"
)

func main() {
	singlechecker.Main(analyzer.Analyzer)
}
