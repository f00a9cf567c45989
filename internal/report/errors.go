package report

import (
	"errors"
	"fmt"
)

// ErrMalformedReport is matched by every ParseError.
var ErrMalformedReport = errors.New("malformed report")

// Facet names used in ParseError and metrics.
const (
	FacetMatch       = "match"
	FacetOdds        = "odds"
	FacetCombineOdds = "combine_odds"
	FacetIndicators  = "indicators"
	FacetStakes      = "stakes"
)

// ParseError reports text that does not follow the engine's report shape.
type ParseError struct {
	Facet  string
	Reason string
	Err    error
}

func newParseError(facet string, err error, format string, args ...any) *ParseError {
	ParseErrorsTotal.WithLabelValues(facet).Inc()
	return &ParseError{
		Facet:  facet,
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Facet, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Facet, e.Reason)
}

// Is lets errors.Is(err, ErrMalformedReport) match any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedReport
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
