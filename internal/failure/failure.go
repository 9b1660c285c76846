// Package failure defines the error kinds produced while mutating a
// timetable and the context frames that record what was being attempted
// when an error surfaced.
//
// A chain looks like
//
//	Frame("applying multiplier") → Frame("parsing APBeschl") → Error(ParseError) → strconv error
//
// and is reported root-cause-first by Chain.
package failure

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a failure.
type Kind uint8

const (
	ParseError Kind = iota + 1
	MissingTag
	MissingAttribute
	MissingChild
	MissingEntry
	UnrecognizedVariant
	InvalidDistributionParameters
	Overflow
	IO
)

var kindNames = map[Kind]string{
	ParseError:                    "parse error",
	MissingTag:                    "missing tag",
	MissingAttribute:              "missing attribute",
	MissingChild:                  "missing child",
	MissingEntry:                  "missing entry",
	UnrecognizedVariant:           "unrecognized variant",
	InvalidDistributionParameters: "invalid distribution parameters",
	Overflow:                      "overflow",
	IO:                            "io error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is a classified failure. Subject names the tag, attribute or value
// the failure is about; Err is the optional underlying cause.
type Error struct {
	Kind    Kind
	Subject string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Subject != "" {
		fmt.Fprintf(&b, " %q", e.Subject)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind. A target with an empty
// Subject matches any subject.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Subject == "" || t.Subject == e.Subject)
}

// New returns a classified failure without an underlying cause.
func New(kind Kind, subject string) error {
	return &Error{Kind: kind, Subject: subject}
}

// Newf is New with the underlying cause built from a format string.
func Newf(kind Kind, subject, format string, args ...any) error {
	return &Error{Kind: kind, Subject: subject, Err: fmt.Errorf(format, args...)}
}

// From classifies err. Returns nil if err is nil.
func From(kind Kind, subject string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Subject: subject, Err: err}
}

// Frame records one attempted operation wrapping the error it ran into.
type Frame struct {
	Op  string
	Err error
}

func (f *Frame) Error() string { return f.Op + ": " + f.Err.Error() }

func (f *Frame) Unwrap() error { return f.Err }

// Cause lets pkg/errors walk past context frames.
func (f *Frame) Cause() error { return f.Err }

// Wrap attaches op as context to err. Returns nil if err is nil.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return &Frame{Op: op, Err: err}
}

// Wrapf is Wrap with a formatted operation.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Frame{Op: fmt.Sprintf(format, args...), Err: err}
}

// Root returns the innermost error below all context frames.
func Root(err error) error {
	return pkgerrors.Cause(err)
}

// KindOf reports the kind of the first classified failure in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// Ops returns the attempted operations outermost first.
func Ops(err error) []string {
	var ops []string
	for err != nil {
		f, ok := err.(*Frame)
		if !ok {
			break
		}
		ops = append(ops, f.Op)
		err = f.Err
	}
	return ops
}

// Chain returns the chain root-cause-first: the root error's message
// followed by each attempted operation from innermost to outermost.
func Chain(err error) []string {
	if err == nil {
		return nil
	}
	ops := Ops(err)
	out := make([]string, 0, len(ops)+1)
	out = append(out, Root(err).Error())
	for i := len(ops) - 1; i >= 0; i-- {
		out = append(out, ops[i])
	}
	return out
}

// Format renders the chain on multiple lines, root cause first, each
// attempted operation indented beneath it.
func Format(err error) string {
	chain := Chain(err)
	if len(chain) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(chain[0])
	for _, op := range chain[1:] {
		b.WriteString("\n    while ")
		b.WriteString(op)
	}
	return b.String()
}
