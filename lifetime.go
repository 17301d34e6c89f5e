package typepool

import (
	"encoding/json"
	"fmt"
)

// Lifetime specifies what happens to a registered factory's result.
type Lifetime int

const (
	// Persistent specifies that the factory runs at most once. Its
	// result is promoted into the active store on first successful
	// resolution and the factory is discarded.
	Persistent Lifetime = iota

	// Transient specifies that the factory runs on every resolution
	// and its results are never cached.
	Transient
)

// String returns the string representation of the Lifetime.
func (l Lifetime) String() string {
	switch l {
	case Persistent:
		return "Persistent"
	case Transient:
		return "Transient"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// IsValid checks if the lifetime is valid.
func (l Lifetime) IsValid() bool {
	return l >= Persistent && l <= Transient
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifetime) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lifetime) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Persistent", "persistent":
		*l = Persistent
	case "Transient", "transient":
		*l = Transient
	default:
		return fmt.Errorf("invalid lifetime: %q", string(text))
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l Lifetime) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Lifetime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return l.UnmarshalText([]byte(s))
}
