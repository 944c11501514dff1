package session

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// RegisterPayload is the input to the register operation.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.Role, validation.Required, validation.In(RoleClient, RoleFreelancer)),
	)
}

// LoginPayload is the input to the login operation.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (l LoginPayload) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Email, validation.Required, is.Email),
		validation.Field(&l.Password, validation.Required),
	)
}

// ProfileUpdate carries a partial profile change. Nil fields are omitted
// from the request body so the backend only touches what was set.
type ProfileUpdate struct {
	Name              *string   `json:"name,omitempty"`
	Bio               *string   `json:"bio,omitempty"`
	Avatar            *string   `json:"avatar,omitempty"`
	Skills            *[]string `json:"skills,omitempty"`
	HourlyRate        *float64  `json:"hourlyRate,omitempty"`
	CompletedProjects *int      `json:"completedProjects,omitempty"`
}
