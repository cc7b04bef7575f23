package topo

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Diff compares the canonical forms of two documents and returns a
// unified diff, or the empty string when they normalize identically.
// The names label the from/to sides of the diff header.
func Diff(a, b *ServiceSpec, aName, bName string) (string, error) {
	aCanonical, err := Canonical(a)
	if err != nil {
		return "", err
	}

	bCanonical, err := Canonical(b)
	if err != nil {
		return "", err
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(aCanonical)),
		B:        difflib.SplitLines(string(bCanonical)),
		FromFile: aName,
		ToFile:   bName,
		Context:  3,
	})
}
