package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/config"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/repository"
)

var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	contacts []repository.DirectoryContactModel
	chats    []repository.ChatModel
	messages []repository.MessageModel

	noDirectory bool
	noMessages  bool
}

// newStores writes the fixture's stores into a temp dir and returns an
// accessor over them. Skipped stores are left absent on disk.
func newStores(t *testing.T, f fixture) *repository.Accessor {
	t.Helper()
	dir := t.TempDir()
	cfg := repository.StoreConfig{
		MessagesPath:  filepath.Join(dir, "messages.db"),
		DirectoryPath: filepath.Join(dir, "whatsapp.db"),
	}
	if !f.noMessages {
		if err := repository.WriteMessagesStore(cfg.MessagesPath, f.chats, f.messages); err != nil {
			t.Fatalf("write messages store: %v", err)
		}
	}
	if !f.noDirectory {
		if err := repository.WriteDirectoryStore(cfg.DirectoryPath, f.contacts); err != nil {
			t.Fatalf("write directory store: %v", err)
		}
	}
	return repository.NewAccessor(cfg)
}

func missingStores(t *testing.T) *repository.Accessor {
	return newStores(t, fixture{noDirectory: true, noMessages: true})
}

func contact(jid, fullName string) repository.DirectoryContactModel {
	return repository.DirectoryContactModel{
		OurJID:   "10000@s.whatsapp.net",
		TheirJID: jid,
		FullName: repository.Ptr(fullName),
	}
}

func chat(jid, name string, last time.Time) repository.ChatModel {
	c := repository.ChatModel{JID: jid, LastMessageTime: repository.Ptr(last)}
	if name != "" {
		c.Name = repository.Ptr(name)
	}
	return c
}

func message(id, chatJID, sender, content string, ts time.Time) repository.MessageModel {
	return repository.MessageModel{
		ID:        id,
		ChatJID:   chatJID,
		Sender:    repository.Ptr(sender),
		Content:   repository.Ptr(content),
		Timestamp: ts,
	}
}

func newContactService(t *testing.T, stores repository.Opener) *ContactService {
	t.Helper()
	svc, err := NewContactService(stores, config.Default().Ranking)
	if err != nil {
		t.Fatalf("NewContactService() error = %v", err)
	}
	return svc
}

func matchJIDs(matches []domain.ContactMatch) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.JID
	}
	return out
}

func messageIDs(messages []domain.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.ID
	}
	return out
}
