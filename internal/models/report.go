package models

const (
	ReportStatusPending     = "PENDING"
	ReportStatusActionTaken = "ACTION_TAKEN"
	ReportStatusDismissed   = "DISMISSED"
)

const (
	ReportTargetTrainerProfile = "TRAINER_PROFILE"
	ReportTargetUserProfile    = "USER_PROFILE"
	ReportTargetChat           = "CHAT"
)

const (
	ChatTypePrivate = "private"
	ChatTypeGroup   = "group"
)

type Report struct {
	ID             string  `json:"id"`
	ReporterID     *string `json:"reporter_id"`
	ReporterName   string  `json:"reporter_name"`
	TargetID       string  `json:"target_id"`
	TargetType     string  `json:"target_type"`
	TargetName     string  `json:"target_name"`
	Reason         string  `json:"reason"`
	Status         string  `json:"status"`
	CreatedAt      int64   `json:"created_at"`
	ResolvedAt     *int64  `json:"resolved_at,omitempty"`
	ResolvedBy     *string `json:"resolved_by,omitempty"`
	ResolvedByName *string `json:"resolved_by_name,omitempty"`
	Action         *string `json:"action,omitempty"`
	ChatType       *string `json:"chat_type,omitempty"`
}
