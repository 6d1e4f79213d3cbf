// Copyright © 2024 The ELPS authors

package lint

import "fmt"

// Warning kinds, as reported in JSON output.
const (
	KindRef        = "ref"
	KindNoLocation = "ref-no-location"
	KindImportStar = "import-star"
)

// Warning is a finding about one source file.
type Warning interface {
	fmt.Stringer
	// Kind is one of KindRef, KindNoLocation or KindImportStar.
	Kind() string
}

// RefWarning is a reference to a potentially undefined name. Line is
// 1-based and Column counts runes from 0.
type RefWarning struct {
	Line      int
	Column    int
	Reference string
}

func (w RefWarning) String() string {
	return fmt.Sprintf("Warning on line %2d, column %2d: reference to potentially undefined `%s`",
		w.Line, w.Column, w.Reference)
}

func (RefWarning) Kind() string { return KindRef }

// NoLocationRefWarning is a reference to a potentially undefined name whose
// position is unknown, such as a name inside a string annotation.
type NoLocationRefWarning struct {
	Reference string
}

func (w NoLocationRefWarning) String() string {
	return fmt.Sprintf("Warning: reference to potentially undefined `%s`", w.Reference)
}

func (NoLocationRefWarning) Kind() string { return KindNoLocation }

// ImportStarWarning means the file could not be checked because a wildcard
// import makes name resolution unreliable.
type ImportStarWarning struct{}

func (ImportStarWarning) String() string {
	return "Unable to check file, import * detected"
}

func (ImportStarWarning) Kind() string { return KindImportStar }

// IsFailure reports whether w should fail a run. Import-star warnings only
// fail when wildcard imports are disallowed.
func IsFailure(w Warning, allowImportStar bool) bool {
	if _, ok := w.(ImportStarWarning); ok {
		return !allowImportStar
	}
	return true
}
