package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
)

var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

const (
	alice = "15555550100@s.whatsapp.net"
	bob   = "15555550101@s.whatsapp.net"
	group = "120363000000001@g.us"
)

func seededAccessor(t *testing.T) *Accessor {
	t.Helper()
	dir := t.TempDir()
	cfg := StoreConfig{
		MessagesPath:  filepath.Join(dir, "messages.db"),
		DirectoryPath: filepath.Join(dir, "whatsapp.db"),
	}

	chats := []ChatModel{
		{JID: alice, Name: Ptr("Alice"), LastMessageTime: Ptr(t0.Add(2 * time.Minute))},
		{JID: group, Name: Ptr("Team 15555550100"), LastMessageTime: Ptr(t0.Add(3 * time.Minute))},
		{JID: bob, Name: Ptr("  "), LastMessageTime: Ptr(t0)},
		{JID: placeholderJID, Name: Ptr("ghost"), LastMessageTime: Ptr(t0)},
	}
	messages := []MessageModel{
		{ID: "a1", ChatJID: alice, Sender: Ptr(alice), Content: Ptr("100% sure"), Timestamp: t0},
		{ID: "a2", ChatJID: alice, Sender: Ptr(domain.SelfSender), Content: Ptr("ok"), Timestamp: t0.Add(time.Minute), IsFromMe: true},
		{ID: "a3", ChatJID: alice, Sender: Ptr(alice), Content: Ptr("1000 sure"), Timestamp: t0.Add(2 * time.Minute)},
		{ID: "g1", ChatJID: group, Sender: Ptr(bob), Content: Ptr("foto"), MediaType: Ptr("image"), Timestamp: t0.Add(3 * time.Minute)},
	}
	if err := WriteMessagesStore(cfg.MessagesPath, chats, messages); err != nil {
		t.Fatal(err)
	}

	contacts := []DirectoryContactModel{
		{OurJID: "1@s.whatsapp.net", TheirJID: alice, FullName: Ptr(" Alice Johnson ")},
		{OurJID: "2@s.whatsapp.net", TheirJID: alice, FullName: Ptr("Alice from device two")},
		{OurJID: "1@s.whatsapp.net", TheirJID: bob, PushName: Ptr("Bobby")},
		{OurJID: "1@s.whatsapp.net", TheirJID: "999@s.whatsapp.net", FullName: Ptr(" ")},
	}
	if err := WriteDirectoryStore(cfg.DirectoryPath, contacts); err != nil {
		t.Fatal(err)
	}
	return NewAccessor(cfg)
}

func openMessages(t *testing.T, a *Accessor) *Conn {
	t.Helper()
	conn, err := a.OpenMessages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func ids(msgs []domain.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestAccessorMissingStore(t *testing.T) {
	a := NewAccessor(StoreConfig{MessagesPath: filepath.Join(t.TempDir(), "nope.db")})

	if _, err := a.OpenMessages(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("OpenMessages err = %v, want ErrStoreUnavailable", err)
	}
	if _, err := a.OpenDirectory(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("OpenDirectory with no path err = %v, want ErrStoreUnavailable", err)
	}
}

func TestAccessorIsReadOnly(t *testing.T) {
	conn := openMessages(t, seededAccessor(t))

	err := conn.Exec("DELETE FROM messages").Error
	if err == nil {
		t.Fatal("write through a read-only connection succeeded")
	}
}

func TestAccessorEscapesPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backup?mode=rwc#2 50%")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "messages.db")
	err := WriteMessagesStore(path, []ChatModel{{JID: alice, Name: Ptr("Alice")}},
		[]MessageModel{{ID: "x1", ChatJID: alice, Content: Ptr("hola"), Timestamp: t0}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("store not written at the literal path: %v", err)
	}

	conn, err := NewAccessor(StoreConfig{MessagesPath: path}).OpenMessages(context.Background())
	if err != nil {
		t.Fatalf("OpenMessages() error = %v", err)
	}
	defer conn.Close()
	msg, err := NewMessageRepository(conn.DB).GetByID(context.Background(), "x1")
	if err != nil || msg == nil {
		t.Fatalf("GetByID = %v, %v", msg, err)
	}
	if err := conn.Exec("DELETE FROM messages").Error; err == nil {
		t.Error("query text in the path must not override read-only mode")
	}
}

func TestStoreDSN(t *testing.T) {
	got, err := storeDSN("/data/a?b#c/messages.db", "ro", 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	want := "file:///data/a%3Fb%23c/messages.db?_busy_timeout=2000&mode=ro"
	if got != want {
		t.Errorf("storeDSN() = %q, want %q", got, want)
	}
}

func TestMessageList(t *testing.T) {
	repo := NewMessageRepository(openMessages(t, seededAccessor(t)).DB)
	ctx := context.Background()
	after := t0

	tests := []struct {
		name   string
		filter domain.MessageFilter
		want   []string
	}{
		{"newest first", domain.MessageFilter{}, []string{"g1", "a3", "a2", "a1"}},
		{"literal percent", domain.MessageFilter{Query: "100%"}, []string{"a1"}},
		{"case-insensitive", domain.MessageFilter{Query: "SURE"}, []string{"a3", "a1"}},
		{"strict after", domain.MessageFilter{After: &after}, []string{"g1", "a3", "a2"}},
		{"sender", domain.MessageFilter{Sender: bob}, []string{"g1"}},
		{"chat", domain.MessageFilter{ChatJID: alice, Query: "ok"}, []string{"a2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter, 10, 0)
			if err != nil {
				t.Fatal(err)
			}
			if g := ids(got); !slices.Equal(g, tt.want) {
				t.Errorf("List() = %v, want %v", g, tt.want)
			}
		})
	}

	page, err := repo.List(ctx, domain.MessageFilter{ChatJID: alice}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if g := ids(page); !slices.Equal(g, []string{"a1"}) {
		t.Errorf("offset page = %v", g)
	}
}

func TestMessageJoinsChatName(t *testing.T) {
	repo := NewMessageRepository(openMessages(t, seededAccessor(t)).DB)

	msg, err := repo.GetByID(context.Background(), "g1")
	if err != nil || msg == nil {
		t.Fatalf("GetByID = %v, %v", msg, err)
	}
	if msg.ChatName != "Team 15555550100" || msg.MediaType != "image" || !msg.Timestamp.Equal(t0.Add(3*time.Minute)) {
		t.Errorf("msg = %+v", msg)
	}

	missing, err := repo.GetByID(context.Background(), "zzz")
	if err != nil || missing != nil {
		t.Errorf("missing id = %v, %v", missing, err)
	}
}

func TestMessageNeighbours(t *testing.T) {
	repo := NewMessageRepository(openMessages(t, seededAccessor(t)).DB)
	ctx := context.Background()
	pivot := t0.Add(time.Minute)

	before, err := repo.ListBefore(ctx, alice, pivot, 5)
	if err != nil {
		t.Fatal(err)
	}
	after, err := repo.ListAfter(ctx, alice, pivot, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids(before), []string{"a1"}) || !slices.Equal(ids(after), []string{"a3"}) {
		t.Errorf("before = %v, after = %v", ids(before), ids(after))
	}

	none, err := repo.ListBefore(ctx, alice, pivot, 0)
	if err != nil || len(none) != 0 {
		t.Errorf("zero limit = %v, %v", none, err)
	}
}

func TestLastInteraction(t *testing.T) {
	repo := NewMessageRepository(openMessages(t, seededAccessor(t)).DB)

	msg, err := repo.LastInteraction(context.Background(), bob)
	if err != nil || msg == nil || msg.ID != "g1" {
		t.Errorf("LastInteraction(bob) = %+v, %v", msg, err)
	}
}

func TestChatListNamed(t *testing.T) {
	repo := NewChatRepository(openMessages(t, seededAccessor(t)).DB)

	records, err := repo.ListNamed(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range records {
		got = append(got, r.JID)
		if r.Source != domain.SourceChat {
			t.Errorf("source = %q", r.Source)
		}
	}
	// The blank-named chat and the placeholder are excluded.
	if !slices.Equal(got, []string{group, alice}) {
		t.Errorf("ListNamed() = %v", got)
	}
}

func TestChatLastMessage(t *testing.T) {
	repo := NewChatRepository(openMessages(t, seededAccessor(t)).DB)
	ctx := context.Background()

	chat, err := repo.GetByJID(ctx, alice, true)
	if err != nil || chat == nil {
		t.Fatalf("GetByJID = %v, %v", chat, err)
	}
	if chat.LastMessage == nil || *chat.LastMessage != "1000 sure" {
		t.Errorf("last message = %v", chat.LastMessage)
	}

	bare, err := repo.GetByJID(ctx, alice, false)
	if err != nil || bare.LastMessage != nil {
		t.Errorf("without last message = %+v, %v", bare, err)
	}
}

func TestFindDirectByPhoneSkipsGroups(t *testing.T) {
	repo := NewChatRepository(openMessages(t, seededAccessor(t)).DB)

	chat, err := repo.FindDirectByPhone(context.Background(), "15555550100")
	if err != nil || chat == nil || chat.JID != alice {
		t.Errorf("FindDirectByPhone = %+v, %v", chat, err)
	}

	chat, err = repo.FindDirectByPhone(context.Background(), "120363")
	if err != nil || chat != nil {
		t.Errorf("group prefix matched %+v, %v", chat, err)
	}
}

func TestListForContact(t *testing.T) {
	repo := NewChatRepository(openMessages(t, seededAccessor(t)).DB)

	chats, err := repo.ListForContact(context.Background(), bob, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, c := range chats {
		got = append(got, c.JID)
	}
	if !slices.Equal(got, []string{group, bob}) {
		t.Errorf("ListForContact(bob) = %v", got)
	}
}

func TestNameForSender(t *testing.T) {
	repo := NewChatRepository(openMessages(t, seededAccessor(t)).DB)
	ctx := context.Background()

	tests := []struct {
		sender, want string
	}{
		{alice, "Alice"},
		// A bare number falls back to a chat JID containing it.
		{"15555550100", "Alice"},
		// Blank chat name, and no other chat carries bob's number.
		{bob, ""},
		{"42@s.whatsapp.net", ""},
	}
	for _, tt := range tests {
		got, err := repo.NameForSender(ctx, tt.sender)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("NameForSender(%q) = %q, want %q", tt.sender, got, tt.want)
		}
	}
}

func TestContactListNamed(t *testing.T) {
	a := seededAccessor(t)
	conn, err := a.OpenDirectory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	repo := NewContactRepository(conn.DB)

	entries, err := repo.ListNamed(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListNamed() = %+v", entries)
	}
	if entries[0].JID != alice || entries[0].DisplayName() != "Alice Johnson" {
		t.Errorf("first linked device should win and names are trimmed: %+v", entries[0])
	}
	if entries[1].DisplayName() != "Bobby" {
		t.Errorf("push name fallback: %+v", entries[1])
	}

	missing, err := repo.GetByJID(context.Background(), "nobody@s.whatsapp.net")
	if err != nil || missing != nil {
		t.Errorf("GetByJID(missing) = %v, %v", missing, err)
	}
}

func TestLikePattern(t *testing.T) {
	if got := likePattern(`50%_off\`); got != `%50\%\_off\\%` {
		t.Errorf("likePattern() = %q", got)
	}
}
