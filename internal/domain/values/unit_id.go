package values

import (
	"fmt"
	"path"
	"strings"
)

// UnitID identifies a single source unit (normally a source file path
// relative to the project root). Identifiers are normalized so that
// "./contracts//Token.sol" and "contracts/Token.sol" are the same unit.
type UnitID struct {
	value string
}

// NewUnitID creates a normalized UnitID.
func NewUnitID(id string) (UnitID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return UnitID{}, fmt.Errorf("unit ID cannot be empty")
	}
	id = strings.ReplaceAll(id, "\\", "/")
	id = path.Clean(id)
	id = strings.TrimPrefix(id, "./")
	if id == "." || id == "/" {
		return UnitID{}, fmt.Errorf("unit ID %q does not name a file", id)
	}
	return UnitID{value: id}, nil
}

// MustNewUnitID creates a UnitID or panics (for tests/constants)
func MustNewUnitID(id string) UnitID {
	uid, err := NewUnitID(id)
	if err != nil {
		panic(err)
	}
	return uid
}

// String returns the normalized identifier
func (u UnitID) String() string {
	return u.value
}

// IsEmpty returns true if this is the zero value
func (u UnitID) IsEmpty() bool {
	return u.value == ""
}

// Less orders unit IDs lexically. Used to keep plans deterministic.
func (u UnitID) Less(other UnitID) bool {
	return u.value < other.value
}

// MarshalText implements encoding.TextMarshaler so UnitID works as a map key.
func (u UnitID) MarshalText() ([]byte, error) {
	return []byte(u.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (u *UnitID) UnmarshalText(data []byte) error {
	id, err := NewUnitID(string(data))
	if err != nil {
		return err
	}
	*u = id
	return nil
}
