package role

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind is the discriminator tag carried by every role variant. It is surfaced
// in JSON as "__typename" so API clients can tell the variants apart.
type Kind string

const (
	KindAdmin Kind = "AdminRole"
	KindUser  Kind = "UserRole"
)

var ErrUnsupportedKind = errors.New("unsupported role kind")

// Role is a closed set of variants: AdminRole and UserRole. Values are
// immutable once attached to a membership; changing a member's role means
// replacing the whole value.
type Role interface {
	RoleID() string
	Kind() Kind
}

// AdminRole grants organisation-level full control when admin is set.
type AdminRole struct {
	ID    string
	Admin bool
}

func (r AdminRole) RoleID() string { return r.ID }
func (r AdminRole) Kind() Kind     { return KindAdmin }

func (r AdminRole) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string `json:"id"`
		Typename Kind   `json:"__typename"`
		Admin    bool   `json:"admin"`
	}{r.ID, KindAdmin, r.Admin})
}

// UserRole is the regular member role. write grants mutation rights on boards
// and tickets; admin grants elevated read only.
type UserRole struct {
	ID    string
	Admin bool
	Write bool
}

func (r UserRole) RoleID() string { return r.ID }
func (r UserRole) Kind() Kind     { return KindUser }

func (r UserRole) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string `json:"id"`
		Typename Kind   `json:"__typename"`
		Admin    bool   `json:"admin"`
		Write    bool   `json:"write"`
	}{r.ID, KindUser, r.Admin, r.Write})
}

func NewAdmin(admin bool) AdminRole {
	return AdminRole{ID: uuid.NewString(), Admin: admin}
}

func NewUser(admin, write bool) UserRole {
	return UserRole{ID: uuid.NewString(), Admin: admin, Write: write}
}

// Capabilities is what a role lets its holder do inside one organisation.
type Capabilities struct {
	CanRead       bool
	CanWrite      bool
	CanAdminister bool
}

// Capability names a single required right, used by the authorization guard
// to express the minimal capability an action needs.
type Capability int

const (
	CapRead Capability = iota
	CapWrite
	CapAdminister
)

func (c Capabilities) Has(cap Capability) bool {
	switch cap {
	case CapRead:
		return c.CanRead
	case CapWrite:
		return c.CanWrite
	case CapAdminister:
		return c.CanAdminister
	default:
		return false
	}
}

// CapabilitiesOf resolves a role variant to its capabilities. It is a pure
// function over the variant tag. Every member can read their organisation;
// AdminRole with admin set gets everything. UserRole.Admin grants elevated
// read only, it does not imply write or administer.
func CapabilitiesOf(r Role) (Capabilities, error) {
	switch v := r.(type) {
	case AdminRole:
		if v.Admin {
			return Capabilities{CanRead: true, CanWrite: true, CanAdminister: true}, nil
		}
		return Capabilities{CanRead: true}, nil
	case UserRole:
		return Capabilities{CanRead: true, CanWrite: v.Write}, nil
	default:
		return Capabilities{}, fmt.Errorf("%w: %T", ErrUnsupportedKind, r)
	}
}

// roleJSON is the wire shape shared by both variants; absent flags decode as false.
type roleJSON struct {
	ID       string `json:"id"`
	Typename Kind   `json:"__typename"`
	Admin    bool   `json:"admin"`
	Write    bool   `json:"write"`
}

// Decode rebuilds a role value from its JSON form, dispatching on the
// "__typename" discriminator. Unknown tags fail with ErrUnsupportedKind.
func Decode(data []byte) (Role, error) {
	var raw roleJSON

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKind, err)
	}

	id := raw.ID
	if id == "" {
		id = uuid.NewString()
	}

	switch raw.Typename {
	case KindAdmin:
		return AdminRole{ID: id, Admin: raw.Admin}, nil
	case KindUser:
		return UserRole{ID: id, Admin: raw.Admin, Write: raw.Write}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, raw.Typename)
	}
}
