package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Failure classes. Stages wrap one of these so the driver can decide whether
// a failure aborts the run or only skips the affected indicator.
var (
	// ErrTransport marks connection errors and non-2xx responses.
	ErrTransport = errors.New("transport failure")
	// ErrParse marks archives, spreadsheets, CSVs, or rasters that do not have the expected shape.
	ErrParse = errors.New("parse failure")
	// ErrEmptyResult marks a filter for the target country or department that matched nothing.
	ErrEmptyResult = errors.New("empty result")
	// ErrConfig marks settings that cannot be used, such as an unresolvable spatial reference.
	ErrConfig = errors.New("configuration error")
)

// FailurePolicy decides what a multi-indicator driver does when one indicator fails.
type FailurePolicy string

const (
	// FailFatal aborts the whole run on the first failed indicator.
	FailFatal FailurePolicy = "fatal"
	// FailSkip logs the failure, drops the indicator, and continues.
	// The run still fails when every indicator has been skipped.
	FailSkip FailurePolicy = "skip"
)

// ParseFailurePolicy accepts "fatal" or "skip" (case-insensitive).
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FailFatal, FailSkip:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown failure policy %q", ErrConfig, s)
	}
}
