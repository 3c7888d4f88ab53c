package user

import "time"

type Role string

const (
	RoleStudent   Role = "student"
	RoleRecruiter Role = "recruiter"

	// RoleAdmin is never accepted by registration; it exists only for the
	// seeded ops account that gates the /admin surface.
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleRecruiter, RoleAdmin:
		return true
	default:
		return false
	}
}

// Profile carries the mutable, self-service part of a user record.
type Profile struct {
	Bio                string   `bson:"bio,omitempty" json:"bio"`
	Skills             []string `bson:"skills,omitempty" json:"skills"`
	PhoneNumber        string   `bson:"phoneNumber,omitempty" json:"phoneNumber"`
	Resume             string   `bson:"resume,omitempty" json:"resume"`
	ResumeOriginalName string   `bson:"resumeOriginalName,omitempty" json:"resumeOriginalName"`
	Photo              string   `bson:"photo,omitempty" json:"photo"`
}

type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"` // never expose hash in JSON
	FullName     string    `bson:"fullName" json:"fullName"`
	Role         Role      `bson:"role" json:"role"`
	Profile      Profile   `bson:"profile" json:"profile"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

type CreateParams struct {
	Email        string
	PasswordHash string
	FullName     string
	Role         Role

	// optional resume captured at registration
	Resume             string
	ResumeOriginalName string
}

// UpdateParams uses pointers so absent fields stay untouched in the store.
type UpdateParams struct {
	FullName           *string
	Bio                *string
	PhoneNumber        *string
	Skills             []string
	Resume             *string
	ResumeOriginalName *string
	Photo              *string
}

func (p UpdateParams) Empty() bool {
	return p.FullName == nil &&
		p.Bio == nil &&
		p.PhoneNumber == nil &&
		p.Skills == nil &&
		p.Resume == nil &&
		p.ResumeOriginalName == nil &&
		p.Photo == nil
}
