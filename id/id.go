// Package id issues TypeID identifiers for transitions and events.
//
// Records are addressed by account.Address; ids here only correlate log
// lines, plugin events and audit entries that belong to one invocation.
// They are K-sortable and render as "prefix_suffix".
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the kind of thing an ID refers to.
type Prefix string

const (
	PrefixTransition Prefix = "txn" // one engine invocation
	PrefixEvent      Prefix = "evt" // lifecycle event delivered to plugins
)

// ID wraps a TypeID. The zero value is Nil.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	tid typeid.TypeID
	ok  bool
}

// Nil is the zero ID.
var Nil ID

// TxID identifies a transition.
type TxID = ID

// EventID identifies a lifecycle event.
type EventID = ID

// New returns a fresh ID. It panics on an invalid prefix.
func New(p Prefix) ID {
	tid, err := typeid.Generate(string(p))
	if err != nil {
		panic(fmt.Sprintf("id: generate %q: %v", p, err))
	}
	return ID{tid: tid, ok: true}
}

// NewTxID returns a transition id.
func NewTxID() TxID { return New(PrefixTransition) }

// NewEventID returns an event id.
func NewEventID() EventID { return New(PrefixEvent) }

// Parse decodes s, optionally requiring one of the given prefixes.
func Parse(s string, want ...Prefix) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse: empty string")
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	parsed := ID{tid: tid, ok: true}
	if len(want) == 0 {
		return parsed, nil
	}
	for _, p := range want {
		if parsed.Prefix() == p {
			return parsed, nil
		}
	}
	return Nil, fmt.Errorf("id: %q has prefix %q, want one of %v", s, parsed.Prefix(), want)
}

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.ok {
		return ""
	}
	return i.tid.String()
}

// Prefix returns the prefix, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.ok {
		return ""
	}
	return Prefix(i.tid.Prefix())
}

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool { return !i.ok }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
