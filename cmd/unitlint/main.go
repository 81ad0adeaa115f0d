// Command unitlint reports //unitgen:derive declarations unitgen cannot
// derive a unit companion for, and companions that have not been generated.
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/gork-labs/unitgen/internal/unitlint"
)

func main() {
	singlechecker.Main(unitlint.Analyzer)
}
