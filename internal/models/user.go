package models

const (
	UserTypeUser      = "USER"
	UserTypeTrainer   = "TRAINER"
	UserTypeTechAdmin = "TECH_ADMIN"
)

type User struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	PasswordHash  string   `json:"-"`
	UserType      string   `json:"user_type"`
	Gender        *string  `json:"gender"`
	Description   string   `json:"description"`
	Balance       int64    `json:"balance"`
	GalleryPhotos []string `json:"gallery_photos"`
	Avatar        string   `json:"avatar"`
	IsBanned      bool     `json:"is_banned"`
}

// Role maps the stored user type onto the token role used by the API layer.
func (u *User) Role() string {
	switch u.UserType {
	case UserTypeTrainer:
		return "trainer"
	case UserTypeTechAdmin:
		return "admin"
	default:
		return "user"
	}
}
