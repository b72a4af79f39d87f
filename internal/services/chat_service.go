package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/repository"
)

const (
	// SystemSenderID authors the machine-generated messages posted by the
	// booking flow and group membership changes.
	SystemSenderID = "system"

	// DeletedMessagePlaceholder replaces the text of soft-deleted messages.
	DeletedMessagePlaceholder = "Message deleted"

	groupChatKeyPrefix = "group_"
)

// ChatIDFor derives the canonical 1:1 conversation id: the two participant
// ids sorted lexicographically and joined with "_". Order-independent and
// stable across profile changes.
func ChatIDFor(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + "_" + userB
}

// PeerFromChatID recovers the other participant of a 1:1 chat id. Returns ""
// when the id is not a two-party key involving me.
func PeerFromChatID(chatID, me string) string {
	if strings.HasPrefix(chatID, me+"_") {
		return strings.TrimPrefix(chatID, me+"_")
	}
	if strings.HasSuffix(chatID, "_"+me) {
		return strings.TrimSuffix(chatID, "_"+me)
	}
	return ""
}

// GroupChatKey is the projection-level conversation key of a group chat. Raw
// message rows keep receiver_id = groupID; only chat-list entries and
// cleared-chat tombstones use the prefixed form.
func GroupChatKey(groupID string) string {
	return groupChatKeyPrefix + groupID
}

func GroupIDFromKey(chatKey string) (string, bool) {
	if !strings.HasPrefix(chatKey, groupChatKeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(chatKey, groupChatKeyPrefix), true
}

type ChatService struct {
	db          *pgxpool.Pool
	messageRepo *repository.MessageRepository
	groupRepo   *repository.GroupChatRepository
	clearedRepo *repository.ClearedChatRepository
	userRepo    *repository.UserRepository
	trainerRepo *repository.TrainerRepository
	notifier    Notifier
}

func NewChatService(
	db *pgxpool.Pool,
	messageRepo *repository.MessageRepository,
	groupRepo *repository.GroupChatRepository,
	clearedRepo *repository.ClearedChatRepository,
	userRepo *repository.UserRepository,
	trainerRepo *repository.TrainerRepository,
	notifier Notifier,
) *ChatService {
	return &ChatService{
		db:          db,
		messageRepo: messageRepo,
		groupRepo:   groupRepo,
		clearedRepo: clearedRepo,
		userRepo:    userRepo,
		trainerRepo: trainerRepo,
		notifier:    notifier,
	}
}

type SendMessageInput struct {
	Text           string
	AttachmentType *string
	AttachmentPath *string
}

func validateMessageInput(input SendMessageInput) (string, error) {
	trimmed := strings.TrimSpace(input.Text)
	if trimmed == "" && input.AttachmentPath == nil {
		return "", ErrInvalidInput
	}
	if input.AttachmentType != nil {
		switch *input.AttachmentType {
		case models.AttachmentImage, models.AttachmentFile:
		default:
			return "", ErrInvalidInput
		}
		if input.AttachmentPath == nil || *input.AttachmentPath == "" {
			return "", ErrInvalidInput
		}
	}
	return trimmed, nil
}

// SendDirect appends a 1:1 message, drops both participants' cleared-chat
// tombstones so the conversation reappears, and notifies the receiver.
func (s *ChatService) SendDirect(
	ctx context.Context,
	senderID string,
	receiverID string,
	input SendMessageInput,
) (*models.Message, error) {
	if receiverID == "" || receiverID == senderID {
		return nil, ErrInvalidInput
	}
	text, err := validateMessageInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveSender(ctx, senderID); err != nil {
		return nil, err
	}

	receiver, err := s.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if receiver.IsBanned {
		return nil, ErrUserNotFound
	}

	chatID := ChatIDFor(senderID, receiverID)
	message := &models.Message{
		ID:             uuid.NewString(),
		ChatID:         chatID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Text:           text,
		Timestamp:      time.Now().UnixMilli(),
		AttachmentType: input.AttachmentType,
		AttachmentPath: input.AttachmentPath,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txClearedRepo := repository.NewClearedChatRepository(tx)

	if err := txMessageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	if err := txClearedRepo.RemoveForParticipants(ctx, chatID, []string{senderID, receiverID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.Notify(receiverID, message)
	return message, nil
}

// SendGroup appends a group message. The raw row addresses the group id
// directly; tombstone removal and notification fan out to every current
// member.
func (s *ChatService) SendGroup(
	ctx context.Context,
	senderID string,
	groupID string,
	input SendMessageInput,
) (*models.Message, error) {
	text, err := validateMessageInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveSender(ctx, senderID); err != nil {
		return nil, err
	}

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !isMember(group, senderID) {
		return nil, ErrForbidden
	}

	message := &models.Message{
		ID:             uuid.NewString(),
		ChatID:         GroupChatKey(groupID),
		SenderID:       senderID,
		ReceiverID:     groupID,
		Text:           text,
		Timestamp:      time.Now().UnixMilli(),
		AttachmentType: input.AttachmentType,
		AttachmentPath: input.AttachmentPath,
		IsGroupMessage: true,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txClearedRepo := repository.NewClearedChatRepository(tx)

	if err := txMessageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	if err := txClearedRepo.RemoveForParticipants(ctx, GroupChatKey(groupID), group.Members); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	for _, memberID := range group.Members {
		if memberID != senderID {
			s.notifier.Notify(memberID, message)
		}
	}
	return message, nil
}

func (s *ChatService) ListDirectMessages(ctx context.Context, actorID, peerID string) ([]models.Message, error) {
	if peerID == "" || peerID == actorID {
		return nil, ErrInvalidInput
	}
	return s.messageRepo.ListByChat(ctx, ChatIDFor(actorID, peerID))
}

func (s *ChatService) ListGroupMessages(ctx context.Context, actorID, groupID string) ([]models.Message, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !isMember(group, actorID) {
		return nil, ErrForbidden
	}
	return s.messageRepo.ListByGroup(ctx, groupID)
}

// EditMessage sets the new text and the edited flag. Only the sender may
// edit, and deleted messages stay deleted.
func (s *ChatService) EditMessage(ctx context.Context, actorID, messageID, newText string) (*models.Message, error) {
	trimmed := strings.TrimSpace(newText)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != actorID {
		return nil, ErrForbidden
	}
	if message.IsDeleted {
		return nil, ErrInvalidInput
	}
	return s.messageRepo.UpdateText(ctx, messageID, trimmed)
}

// DeleteMessage soft-deletes: the row keeps its id, chat and timestamp so
// ordering survives, only the text is replaced.
func (s *ChatService) DeleteMessage(ctx context.Context, actorID, messageID string) (*models.Message, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != actorID {
		return nil, ErrForbidden
	}
	if message.IsDeleted {
		return message, nil
	}
	return s.messageRepo.SoftDelete(ctx, messageID, DeletedMessagePlaceholder)
}

func (s *ChatService) MarkDirectRead(ctx context.Context, actorID, peerID string) error {
	if peerID == "" || peerID == actorID {
		return ErrInvalidInput
	}
	return s.messageRepo.MarkDirectRead(ctx, ChatIDFor(actorID, peerID), actorID)
}

func (s *ChatService) MarkGroupRead(ctx context.Context, actorID, groupID string) error {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !isMember(group, actorID) {
		return ErrForbidden
	}
	return s.messageRepo.MarkGroupRead(ctx, groupID, actorID)
}

func (s *ChatService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.messageRepo.UnreadCountForUser(ctx, userID)
}

// UnreadFeed lists the user's unread messages across 1:1 chats and group
// memberships, newest first.
func (s *ChatService) UnreadFeed(ctx context.Context, userID string) ([]models.Message, error) {
	return s.messageRepo.ListUnreadForUser(ctx, userID)
}

// ChatListFor builds the unified conversation list: every visible 1:1 chat
// plus every non-tombstoned group the user belongs to, sorted by last-message
// time descending. 1:1 peer names resolve trainer-first so a trainer and
// their plain-user identity collapse into one conversation.
func (s *ChatService) ChatListFor(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	summaries, err := s.messageRepo.DirectChatSummaries(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i].PeerName = s.resolvePeerName(ctx, summaries[i].PeerID)
	}

	groups, err := s.groupRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		cleared, err := s.clearedRepo.Exists(ctx, userID, GroupChatKey(group.ID))
		if err != nil {
			return nil, err
		}
		if cleared {
			continue
		}

		summary := models.ChatSummary{
			ChatID:          GroupChatKey(group.ID),
			PeerID:          group.ID,
			PeerName:        group.Name,
			LastMessageTime: group.CreatedAt,
			IsGroupChat:     true,
		}
		last, err := s.messageRepo.GroupLastMessage(ctx, group.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if err == nil {
			summary.LastMessage = last.Text
			summary.LastMessageTime = last.Timestamp
		}
		unread, err := s.messageRepo.GroupUnreadCount(ctx, group.ID, userID)
		if err != nil {
			return nil, err
		}
		summary.UnreadCount = unread
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageTime > summaries[j].LastMessageTime
	})
	return summaries, nil
}

func (s *ChatService) resolvePeerName(ctx context.Context, peerID string) string {
	if peerID == SystemSenderID {
		return "System"
	}
	trainer, err := s.trainerRepo.FindByOwner(ctx, peerID)
	if err == nil {
		return trainer.Name
	}
	user, err := s.userRepo.GetByID(ctx, peerID)
	if err == nil {
		return user.Name
	}
	return "Unknown"
}

// ClearForUser hides a conversation from this user's list only. Idempotent;
// messages are untouched and the other side still sees history.
func (s *ChatService) ClearForUser(ctx context.Context, userID, chatID string) error {
	if chatID == "" {
		return ErrInvalidInput
	}
	return s.clearedRepo.Upsert(ctx, userID, chatID, time.Now().UnixMilli())
}

func (s *ChatService) CreateGroup(ctx context.Context, creatorID, name string, memberIDs []string) (*models.GroupChat, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	members := []string{creatorID}
	seen := map[string]bool{creatorID: true}
	for _, memberID := range memberIDs {
		if memberID == "" || seen[memberID] {
			continue
		}
		seen[memberID] = true
		members = append(members, memberID)
	}

	group := &models.GroupChat{
		ID:        uuid.NewString(),
		Name:      trimmed,
		CreatedBy: creatorID,
		Members:   members,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *ChatService) GetGroup(ctx context.Context, actorID, groupID string) (*models.GroupChat, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !isMember(group, actorID) {
		return nil, ErrForbidden
	}
	return group, nil
}

func (s *ChatService) ListGroupsFor(ctx context.Context, userID string) ([]models.GroupChat, error) {
	return s.groupRepo.ListForUser(ctx, userID)
}

// InviteToGroup adds a user and posts a system message announcing it. Any
// member may invite; adding an existing member is a no-op.
func (s *ChatService) InviteToGroup(ctx context.Context, actorID, groupID, userID string) (*models.GroupChat, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !isMember(group, actorID) {
		return nil, ErrForbidden
	}
	if isMember(group, userID) {
		return group, nil
	}

	invited, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if invited.IsBanned {
		return nil, ErrUserNotFound
	}

	updated, err := s.groupRepo.AddMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.groupRepo.GetByID(ctx, groupID)
		}
		return nil, err
	}

	s.postGroupSystemMessage(ctx, updated, invited.Name+" joined the group")
	return updated, nil
}

// LeaveGroup removes the actor from the member list. The creator cannot
// leave their own group; they delete it instead.
func (s *ChatService) LeaveGroup(ctx context.Context, actorID, groupID string) (*models.GroupChat, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !isMember(group, actorID) {
		return nil, ErrForbidden
	}
	if group.CreatedBy == actorID {
		return nil, ErrInvalidInput
	}

	updated, err := s.groupRepo.RemoveMember(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}

	leaver, lookupErr := s.userRepo.GetByID(ctx, actorID)
	name := actorID
	if lookupErr == nil {
		name = leaver.Name
	}
	s.postGroupSystemMessage(ctx, updated, name+" left the group")
	return updated, nil
}

func (s *ChatService) RenameGroup(ctx context.Context, actorID, groupID, name string) (*models.GroupChat, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy != actorID {
		return nil, ErrForbidden
	}
	return s.groupRepo.Rename(ctx, groupID, trimmed)
}

func (s *ChatService) SetGroupPhoto(ctx context.Context, actorID, groupID, photoPath string) (*models.GroupChat, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy != actorID {
		return nil, ErrForbidden
	}
	return s.groupRepo.SetPhoto(ctx, groupID, photoPath)
}

// DeleteGroup removes the group, its messages and its tombstones. Creator
// only.
func (s *ChatService) DeleteGroup(ctx context.Context, actorID, groupID string) error {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatedBy != actorID {
		return ErrForbidden
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txClearedRepo := repository.NewClearedChatRepository(tx)
	txGroupRepo := repository.NewGroupChatRepository(tx)

	if err := txMessageRepo.DeleteByGroup(ctx, groupID); err != nil {
		return err
	}
	if err := txClearedRepo.DeleteByChat(ctx, GroupChatKey(groupID)); err != nil {
		return err
	}
	if _, err := txGroupRepo.Delete(ctx, groupID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// postGroupSystemMessage is best effort; membership changes succeed even if
// the announcement cannot be written.
func (s *ChatService) postGroupSystemMessage(ctx context.Context, group *models.GroupChat, text string) {
	message := &models.Message{
		ID:             uuid.NewString(),
		ChatID:         GroupChatKey(group.ID),
		SenderID:       SystemSenderID,
		ReceiverID:     group.ID,
		Text:           text,
		Timestamp:      time.Now().UnixMilli(),
		IsGroupMessage: true,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return
	}
	for _, memberID := range group.Members {
		s.notifier.Notify(memberID, message)
	}
}

// requireActiveSender rejects sends from banned accounts. The auth layer
// refuses banned users a new token, but an already-issued one stays valid for
// its lifetime, so the send path re-checks.
func (s *ChatService) requireActiveSender(ctx context.Context, senderID string) error {
	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrForbidden
		}
		return err
	}
	if sender.IsBanned {
		return ErrForbidden
	}
	return nil
}

func isMember(group *models.GroupChat, userID string) bool {
	for _, memberID := range group.Members {
		if memberID == userID {
			return true
		}
	}
	return false
}
