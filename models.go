package session

import (
	"encoding/json"
	"strconv"
)

// Role is the marketplace role carried by a principal.
type Role = string

const (
	// RoleClient is a buyer account (orders gigs)
	RoleClient Role = "client"
	// RoleFreelancer is a seller account (publishes gigs)
	RoleFreelancer Role = "freelancer"
)

// IsValidRole checks if the role is one of the marketplace roles.
func IsValidRole(r Role) bool {
	switch r {
	case RoleClient, RoleFreelancer:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, IsValidRole(r)
}

// DashboardPath returns the default landing page for a role. Unknown roles
// land on the client dashboard.
func DashboardPath(r Role) string {
	if r == RoleFreelancer {
		return "/freelancer/dashboard"
	}
	return "/client/dashboard"
}

// Principal is the authenticated identity and its profile data as the
// backend returns it.
type Principal struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name,omitempty"`
	Email             string   `json:"email,omitempty"`
	Role              Role     `json:"role,omitempty"`
	Bio               string   `json:"bio,omitempty"`
	Avatar            string   `json:"avatar,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	HourlyRate        float64  `json:"hourlyRate,omitempty"`
	MemberSince       string   `json:"memberSince,omitempty"`
	Rating            float64  `json:"rating,omitempty"`
	CompletedProjects int      `json:"completedProjects,omitempty"`
}

// Identified reports whether the principal carries its identifying field.
// The backend is inconsistent about profile-update response shapes, so this
// is the bar a candidate payload has to clear before it replaces the
// current principal.
func (p *Principal) Identified() bool {
	return p != nil && p.ID != 0
}

// UserID returns the principal id as a string.
func (p *Principal) UserID() string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(p.ID, 10)
}

// State is a point-in-time snapshot of the session.
//
// Invariant: Authenticated is true if and only if both Principal and Token
// are present. Loading is true while any session operation is in flight.
// Restored flips to true once the initial rehydration has settled and never
// flips back.
type State struct {
	Principal     *Principal `json:"principal,omitempty"`
	Token         string     `json:"token,omitempty"`
	Authenticated bool       `json:"authenticated"`
	Loading       bool       `json:"loading"`
	Restored      bool       `json:"restored"`
	Err           string     `json:"error,omitempty"`
}

// Anonymous reports whether the snapshot holds no identity at all.
func (s State) Anonymous() bool {
	return s.Principal == nil && s.Token == ""
}

// Role returns the principal's role, or the empty string when anonymous.
func (s State) Role() Role {
	if s.Principal == nil {
		return ""
	}
	return s.Principal.Role
}

// Credentials is the persisted mirror of {token, principal}. The principal
// travels as its serialized JSON form; only Manager.Restore parses it back.
type Credentials struct {
	Token     string
	Principal []byte
}

// Empty reports whether either half of the record is missing.
func (c Credentials) Empty() bool {
	return c.Token == "" || len(c.Principal) == 0
}

func encodePrincipal(p *Principal) []byte {
	if p == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return raw
}
