package services

import (
	"context"
	"errors"
	"testing"

	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/repository"
)

func TestSendDirectAndListMessages(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()
	svc := newTestChatService(pool)

	alice := createTestAccount(t, pool, models.UserTypeUser, 0)
	bob := createTestAccount(t, pool, models.UserTypeUser, 0)

	sent, err := svc.SendDirect(ctx, alice.ID, bob.ID, SendMessageInput{Text: "hi bob"})
	if err != nil {
		t.Fatalf("SendDirect: %v", err)
	}
	if sent.ChatID != ChatIDFor(alice.ID, bob.ID) {
		t.Errorf("chat id = %q", sent.ChatID)
	}

	messages, err := svc.ListDirectMessages(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("ListDirectMessages: %v", err)
	}
	if len(messages) != 1 || messages[0].Text != "hi bob" {
		t.Fatalf("unexpected messages: %+v", messages)
	}
}

func TestClearChatHidesUntilNextMessage(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()
	svc := newTestChatService(pool)

	alice := createTestAccount(t, pool, models.UserTypeUser, 0)
	bob := createTestAccount(t, pool, models.UserTypeUser, 0)

	if _, err := svc.SendDirect(ctx, alice.ID, bob.ID, SendMessageInput{Text: "first"}); err != nil {
		t.Fatalf("SendDirect: %v", err)
	}

	chatID := ChatIDFor(alice.ID, bob.ID)
	if err := svc.ClearForUser(ctx, bob.ID, chatID); err != nil {
		t.Fatalf("ClearForUser: %v", err)
	}

	list, err := svc.ChatListFor(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ChatListFor: %v", err)
	}
	for _, summary := range list {
		if summary.ChatID == chatID {
			t.Fatal("cleared chat still listed")
		}
	}

	// The other side keeps its history.
	aliceList, err := svc.ChatListFor(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ChatListFor alice: %v", err)
	}
	found := false
	for _, summary := range aliceList {
		if summary.ChatID == chatID {
			found = true
		}
	}
	if !found {
		t.Fatal("clear leaked to the other participant")
	}

	// A new message revives the conversation for everyone.
	if _, err := svc.SendDirect(ctx, alice.ID, bob.ID, SendMessageInput{Text: "second"}); err != nil {
		t.Fatalf("SendDirect: %v", err)
	}
	list, err = svc.ChatListFor(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ChatListFor after revive: %v", err)
	}
	found = false
	for _, summary := range list {
		if summary.ChatID == chatID {
			found = true
		}
	}
	if !found {
		t.Fatal("conversation did not reappear after new message")
	}

	messages, err := svc.ListDirectMessages(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("ListDirectMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected full history after revive, got %d messages", len(messages))
	}
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()
	svc := newTestChatService(pool)

	alice := createTestAccount(t, pool, models.UserTypeUser, 0)
	bob := createTestAccount(t, pool, models.UserTypeUser, 0)

	for _, text := range []string{"one", "two", "three"} {
		if _, err := svc.SendDirect(ctx, alice.ID, bob.ID, SendMessageInput{Text: text}); err != nil {
			t.Fatalf("SendDirect: %v", err)
		}
	}

	count, err := svc.UnreadCount(ctx, bob.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 3 {
		t.Errorf("unread = %d, want 3", count)
	}

	if err := svc.MarkDirectRead(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("MarkDirectRead: %v", err)
	}
	count, err = svc.UnreadCount(ctx, bob.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 0 {
		t.Errorf("unread after mark = %d, want 0", count)
	}
}

func TestGroupUnreadCountAndMarkRead(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()
	svc := newTestChatService(pool)

	creator := createTestAccount(t, pool, models.UserTypeUser, 0)
	member := createTestAccount(t, pool, models.UserTypeUser, 0)

	group, err := svc.CreateGroup(ctx, creator.ID, "Readers", []string{member.ID})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	for _, text := range []string{"first", "second"} {
		if _, err := svc.SendGroup(ctx, creator.ID, group.ID, SendMessageInput{Text: text}); err != nil {
			t.Fatalf("SendGroup: %v", err)
		}
	}

	count, err := svc.UnreadCount(ctx, member.ID)
	if err != nil {
		t.Fatalf("UnreadCount member: %v", err)
	}
	if count != 2 {
		t.Errorf("member unread = %d, want 2", count)
	}

	// The sender never counts their own messages.
	count, err = svc.UnreadCount(ctx, creator.ID)
	if err != nil {
		t.Fatalf("UnreadCount creator: %v", err)
	}
	if count != 0 {
		t.Errorf("creator unread = %d, want 0", count)
	}

	if err := svc.MarkGroupRead(ctx, member.ID, group.ID); err != nil {
		t.Fatalf("MarkGroupRead: %v", err)
	}
	count, err = svc.UnreadCount(ctx, member.ID)
	if err != nil {
		t.Fatalf("UnreadCount after mark: %v", err)
	}
	if count != 0 {
		t.Errorf("member unread after mark = %d, want 0", count)
	}
}

func TestBannedSenderCannotSend(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()
	svc := newTestChatService(pool)

	alice := createTestAccount(t, pool, models.UserTypeUser, 0)
	bob := createTestAccount(t, pool, models.UserTypeUser, 0)

	group, err := svc.CreateGroup(ctx, bob.ID, "Open Group", []string{alice.ID})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	if _, err := repository.NewUserRepository(pool).SetBanned(ctx, alice.ID, true); err != nil {
		t.Fatalf("SetBanned: %v", err)
	}

	// A token issued before the ban still authenticates, so the send path
	// itself must refuse.
	if _, err := svc.SendDirect(ctx, alice.ID, bob.ID, SendMessageInput{Text: "still here"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("direct send by banned user: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.SendGroup(ctx, alice.ID, group.ID, SendMessageInput{Text: "still here"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("group send by banned user: err = %v, want ErrForbidden", err)
	}
}

func TestEditAndDeleteMessage(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()
	svc := newTestChatService(pool)

	alice := createTestAccount(t, pool, models.UserTypeUser, 0)
	bob := createTestAccount(t, pool, models.UserTypeUser, 0)

	sent, err := svc.SendDirect(ctx, alice.ID, bob.ID, SendMessageInput{Text: "typo"})
	if err != nil {
		t.Fatalf("SendDirect: %v", err)
	}

	if _, err := svc.EditMessage(ctx, bob.ID, sent.ID, "hijack"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("edit by receiver: err = %v, want ErrForbidden", err)
	}

	edited, err := svc.EditMessage(ctx, alice.ID, sent.ID, "fixed")
	if err != nil {
		t.Fatalf("EditMessage: %v", err)
	}
	if edited.Text != "fixed" || !edited.IsEdited {
		t.Errorf("edit result: text=%q edited=%v", edited.Text, edited.IsEdited)
	}

	deleted, err := svc.DeleteMessage(ctx, alice.ID, sent.ID)
	if err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if !deleted.IsDeleted || deleted.Text != DeletedMessagePlaceholder {
		t.Errorf("delete result: text=%q deleted=%v", deleted.Text, deleted.IsDeleted)
	}

	// Deleting again is a no-op, editing afterwards is rejected.
	if _, err := svc.DeleteMessage(ctx, alice.ID, sent.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := svc.EditMessage(ctx, alice.ID, sent.ID, "resurrect"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("edit after delete: err = %v, want ErrInvalidInput", err)
	}
}

func TestGroupLifecycle(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()
	svc := newTestChatService(pool)

	creator := createTestAccount(t, pool, models.UserTypeUser, 0)
	member := createTestAccount(t, pool, models.UserTypeUser, 0)
	invited := createTestAccount(t, pool, models.UserTypeUser, 0)

	group, err := svc.CreateGroup(ctx, creator.ID, "Climbers", []string{member.ID, member.ID, ""})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if len(group.Members) != 2 {
		t.Fatalf("members = %v, want creator plus one", group.Members)
	}

	if _, err := svc.SendGroup(ctx, invited.ID, group.ID, SendMessageInput{Text: "let me in"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-member send: err = %v, want ErrForbidden", err)
	}

	updated, err := svc.InviteToGroup(ctx, member.ID, group.ID, invited.ID)
	if err != nil {
		t.Fatalf("InviteToGroup: %v", err)
	}
	if len(updated.Members) != 3 {
		t.Fatalf("members after invite = %v", updated.Members)
	}

	if _, err := svc.SendGroup(ctx, invited.ID, group.ID, SendMessageInput{Text: "thanks"}); err != nil {
		t.Fatalf("SendGroup: %v", err)
	}

	messages, err := svc.ListGroupMessages(ctx, creator.ID, group.ID)
	if err != nil {
		t.Fatalf("ListGroupMessages: %v", err)
	}
	// The invite posts a system message alongside the member's own.
	var sawSystem, sawMember bool
	for _, message := range messages {
		if message.SenderID == SystemSenderID {
			sawSystem = true
		}
		if message.SenderID == invited.ID {
			sawMember = true
		}
	}
	if !sawSystem || !sawMember {
		t.Errorf("messages missing system or member entry: %+v", messages)
	}

	if _, err := svc.LeaveGroup(ctx, creator.ID, group.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("creator leave: err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.LeaveGroup(ctx, invited.ID, group.ID); err != nil {
		t.Fatalf("LeaveGroup: %v", err)
	}

	if _, err := svc.RenameGroup(ctx, member.ID, group.ID, "Boulderers"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("rename by member: err = %v, want ErrForbidden", err)
	}

	if err := svc.DeleteGroup(ctx, creator.ID, group.ID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	if _, err := svc.GetGroup(ctx, creator.ID, group.ID); err == nil {
		t.Fatal("group still readable after delete")
	}
}
