// Package errors holds the sentinel errors shared by the engine and the CLI.
//
// Transport failures (refused connections, timeouts, resets) are never
// reported through these values: probes encode them in their outcomes.
// Only malformed input to the engine itself surfaces as an error.
package errors

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is the root of every input validation failure. Use
// errors.Is(err, ErrMalformedInput) to detect any of the wrapped variants.
var ErrMalformedInput = errors.New("malformed input")

// Input errors
var (
	ErrEmptyHost         = fmt.Errorf("%w: host cannot be empty", ErrMalformedInput)
	ErrInvalidPortRange  = fmt.Errorf("%w: invalid port range", ErrMalformedInput)
	ErrInvalidURL        = fmt.Errorf("%w: invalid URL", ErrMalformedInput)
	ErrUnsupportedMethod = fmt.Errorf("%w: unsupported HTTP method", ErrMalformedInput)
	ErrInvalidCollection = fmt.Errorf("%w: invalid collection file", ErrMalformedInput)
	ErrEmptyCollection   = fmt.Errorf("%w: collection has no endpoints", ErrMalformedInput)
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported report format", ErrMalformedInput)
	ErrUnknownSeverity   = fmt.Errorf("%w: unknown severity", ErrMalformedInput)
	ErrInvalidNameserver = fmt.Errorf("%w: invalid nameserver", ErrMalformedInput)
)

// Resolution and persistence errors
var (
	ErrNoIPv4Address = errors.New("no IPv4 address found for host")
	ErrPathEscape    = errors.New("path escapes base directory")
	ErrWriteReport   = errors.New("write report failed")
)
