package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain lets testscript reinvoke this test binary as the "gscript"
// command inside each script, so the golden fixtures under testdata/ exercise
// the real CLI entry point end to end rather than a mock.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"gscript": gscriptMain,
	}))
}

func gscriptMain() int {
	main()
	return 0
}

// TestScripts pins the §8 scenarios' literal stdout (SPEC_FULL.md §3).
func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
	})
}
