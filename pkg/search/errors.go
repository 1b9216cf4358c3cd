package search

import "fmt"

// ParseError reports an invalid qualifier or an unresolvable question code
// in a search query. The offending token is named verbatim; query execution
// is aborted with no partial results.
type ParseError struct {
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("'%s' is not a valid search qualifier.", e.Token)
}
