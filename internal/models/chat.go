package models

const (
	AttachmentImage = "image"
	AttachmentFile  = "file"
)

// Message is a single chat message. For group messages ReceiverID holds the
// group chat id, not a user id; IsGroupMessage discriminates the two.
type Message struct {
	ID             string  `json:"id"`
	ChatID         string  `json:"chat_id"`
	SenderID       string  `json:"sender_id"`
	ReceiverID     string  `json:"receiver_id"`
	Text           string  `json:"text"`
	Timestamp      int64   `json:"timestamp"`
	IsRead         bool    `json:"is_read"`
	MeetingID      *string `json:"meeting_id,omitempty"`
	AttachmentType *string `json:"attachment_type,omitempty"`
	AttachmentPath *string `json:"attachment_path,omitempty"`
	IsGroupMessage bool    `json:"is_group_message"`
	IsEdited       bool    `json:"is_edited"`
	IsDeleted      bool    `json:"is_deleted"`
}

type GroupChat struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"created_by"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
	PhotoPath string   `json:"photo_path"`
}

// ClearedChatEntry is a per-user tombstone hiding a conversation from that
// user's chat list without touching the underlying messages.
type ClearedChatEntry struct {
	UserID    string `json:"user_id"`
	ChatID    string `json:"chat_id"`
	ClearedAt int64  `json:"cleared_at"`
}

// ChatSummary is one row of the unified chat-list projection. For group
// conversations ChatID carries the "group_"-prefixed key and PeerID the raw
// group id.
type ChatSummary struct {
	ChatID          string `json:"chat_id"`
	PeerID          string `json:"peer_id"`
	PeerName        string `json:"peer_name"`
	LastMessage     string `json:"last_message"`
	LastMessageTime int64  `json:"last_message_time"`
	UnreadCount     int    `json:"unread_count"`
	IsGroupChat     bool   `json:"is_group_chat"`
}
