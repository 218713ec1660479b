package errcode

import "errors"

// Code is a stable, log- and wire-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	InvalidConfig Code = "invalid_config"
	InvalidLine   Code = "invalid_line"
	UnknownPin    Code = "unknown_pin"

	// Sensor link / converter.
	NoResponse Code = "no_response"
	Timeout    Code = "timeout"
	Checksum   Code = "checksum"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, SomeCode) match on the wrapper's code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// Coded is implemented by driver sentinels that carry their own code.
type Coded interface {
	error
	Code() Code
}

// MapDriverErr maps low-level driver errors to a Code.
func MapDriverErr(err error) Code {
	if err == nil {
		return OK
	}
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return Of(err)
}

// Sentinel builds a driver error whose message is prefixed by the driver name
// and whose Code is c, e.g. Sentinel("dht", Timeout) reads "dht: timeout".
func Sentinel(driver string, c Code) error {
	return &sentinel{msg: driver + ": " + string(c), c: c}
}

type sentinel struct {
	msg string
	c   Code
}

func (s *sentinel) Error() string { return s.msg }
func (s *sentinel) Code() Code    { return s.c }
