package models

// Trainer is a bookable listing owned by a User. One user may own several
// profiles; legacy rows carry an empty UserID and are owned by the user whose
// id equals the profile id.
type Trainer struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	HobbyName     string   `json:"hobby_name"`
	Description   string   `json:"description"`
	Price         int64    `json:"price"`
	Rating        float32  `json:"rating"`
	Gender        *string  `json:"gender"`
	Avatar        string   `json:"avatar"`
	AvailableTime string   `json:"available_time"`
	AvailableDays []int32  `json:"available_days"`
	Address       string   `json:"address"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Photos        []string `json:"photos"`
}

// OwnerID resolves the owning user id, honouring legacy rows where the
// profile id doubles as the owner id.
func (t *Trainer) OwnerID() string {
	if t.UserID != "" {
		return t.UserID
	}
	return t.ID
}

type Review struct {
	ID        string  `json:"id"`
	TrainerID string  `json:"trainer_id"`
	UserID    string  `json:"user_id"`
	UserName  string  `json:"user_name"`
	Rating    float32 `json:"rating"`
	Text      string  `json:"text"`
	CreatedAt int64   `json:"created_at"`
}
