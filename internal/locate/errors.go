package locate

import (
	"fmt"
	"strings"
)

// NotFoundError reports that no candidate file exists for a queried
// module name after every resolution strategy was exhausted.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("library not found: %s", e.Name)
}

// AmbiguousError reports two or more equally valid candidates with no
// selector supplied. Candidates are in priority order.
type AmbiguousError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous library %s: %d candidates:\n  %s",
		e.Name, len(e.Candidates), strings.Join(e.Candidates, "\n  "))
}

// NotLoadedError reports a symbol query for which no load file could be
// derived from the runtime state.
type NotLoadedError struct {
	Symbol string
}

func (e *NotLoadedError) Error() string {
	return fmt.Sprintf("symbol not currently loaded anywhere: %s", e.Symbol)
}

// DefinitionNotFoundError reports that a file was resolved and read,
// but the symbol's defining pattern never matched. File resolution
// succeeded: the caller may still present File, only positioning is
// skipped.
type DefinitionNotFoundError struct {
	Symbol string
	File   string
}

func (e *DefinitionNotFoundError) Error() string {
	return fmt.Sprintf("definition of %s not found in %s", e.Symbol, e.File)
}

// SelectorRangeError reports a numeric selector outside the candidate
// set it was meant to index.
type SelectorRangeError struct {
	Selector   int
	Candidates int
}

func (e *SelectorRangeError) Error() string {
	return fmt.Sprintf("selector %d out of range: %d candidates", e.Selector, e.Candidates)
}
