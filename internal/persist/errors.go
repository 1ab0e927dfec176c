package persist

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var (
	ErrTruncated    = errors.New("persist: truncated payload")
	ErrKindDrift    = errors.New("persist: member kind changed since discovery")
	ErrLayoutDesync = errors.New("persist: layout desync")
)

// LayoutDesyncError reports a target whose decode was abandoned part way.
// The payload cursor still advanced past the whole target.
type LayoutDesyncError struct {
	Node   string
	Member string
	Err    error
}

func (e *LayoutDesyncError) Error() string {
	return fmt.Sprintf("persist: layout desync node=%q member=%q: %v", e.Node, e.Member, e.Err)
}

func (e *LayoutDesyncError) Unwrap() []error {
	return []error{ErrLayoutDesync, e.Err}
}

type DiagnosticKind string

const (
	DiagUnsupportedMemberKind DiagnosticKind = "unsupported_member_kind"
	DiagEmptyTaggedObject     DiagnosticKind = "empty_tagged_object"
	DiagAccessorFailed        DiagnosticKind = "accessor_failed"
	DiagLayoutDesync          DiagnosticKind = "layout_desync"
)

// Diagnostic is a recovered content anomaly. It never fails an operation.
type Diagnostic struct {
	Kind   DiagnosticKind
	Node   string
	Type   string
	Member string
	Detail string
}

func (d Diagnostic) String() string {
	if d.Member == "" {
		return fmt.Sprintf("%s node=%q type=%s: %s", d.Kind, d.Node, d.Type, d.Detail)
	}
	return fmt.Sprintf("%s node=%q type=%s member=%q: %s", d.Kind, d.Node, d.Type, d.Member, d.Detail)
}

func (d Diagnostic) Log() {
	log.Warn().
		Str("kind", string(d.Kind)).
		Str("node", d.Node).
		Str("type", d.Type).
		Str("member", d.Member).
		Msg("persist " + d.Detail)
}
