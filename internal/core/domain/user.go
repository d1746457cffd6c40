package domain

import "time"

// Role is the coarse-grained permission class of a user.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// Links holds the optional external profile links of a user.
type Links struct {
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	University   string    `json:"university,omitempty"`
	Department   string    `json:"department,omitempty"`
	Title        string    `json:"title,omitempty"`
	Class        string    `json:"class,omitempty"`
	About        string    `json:"about,omitempty"`
	Skills       []string  `json:"skills"`
	Links        Links     `json:"links"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CVURL        string    `json:"cv_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	ResetCode      string    `json:"-"`
	ResetExpiresAt time.Time `json:"-"`
}

// DisplayName is the "Name Surname" form used in notification messages.
func (u *User) DisplayName() string {
	switch {
	case u.Name == "":
		return u.Surname
	case u.Surname == "":
		return u.Name
	}
	return u.Name + " " + u.Surname
}

// Summary returns the reduced view attached to projects and applications.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:      u.ID,
		Name:    u.Name,
		Surname: u.Surname,
		Email:   u.Email,
		Role:    u.Role,
	}
}

// UserSummary is the identity subset exposed when a user is joined onto another record.
type UserSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Role    Role   `json:"role,omitempty"`
}

// ProfileUpdate lists the profile fields a user may change about themselves.
// Nil pointers are left untouched.
type ProfileUpdate struct {
	Name       *string
	Surname    *string
	University *string
	Department *string
	Title      *string
	Class      *string
	About      *string
	Skills     *[]string
	Links      *Links
}

func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Surname == nil && u.University == nil && u.Department == nil &&
		u.Title == nil && u.Class == nil && u.About == nil && u.Skills == nil && u.Links == nil
}

// Apply copies the set fields onto user.
func (u ProfileUpdate) Apply(user *User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Surname != nil {
		user.Surname = *u.Surname
	}
	if u.University != nil {
		user.University = *u.University
	}
	if u.Department != nil {
		user.Department = *u.Department
	}
	if u.Title != nil {
		user.Title = *u.Title
	}
	if u.Class != nil {
		user.Class = *u.Class
	}
	if u.About != nil {
		user.About = *u.About
	}
	if u.Skills != nil {
		user.Skills = *u.Skills
	}
	if u.Links != nil {
		user.Links = *u.Links
	}
}

// Caller is the identity resolved from a verified credential. Every
// operation that needs to know who is acting receives one explicitly.
type Caller struct {
	ID   string
	Role Role
	Name string
}

func (c Caller) Is(role Role) bool {
	return c.ID != "" && c.Role == role
}
