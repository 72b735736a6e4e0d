package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/config"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/repository"
)

const (
	chatA     = "5491122334455@s.whatsapp.net"
	chatB     = "120363009999@g.us"
	senderAna = "5491177778888@s.whatsapp.net"
)

// fiveMessageChat holds msg-40..msg-44 one minute apart in chatA.
func fiveMessageChat() fixture {
	f := fixture{
		chats: []repository.ChatModel{chat(chatA, "Juan Pérez", t0.Add(4*time.Minute))},
	}
	for i := 0; i < 5; i++ {
		f.messages = append(f.messages, message(
			fmt.Sprintf("msg-%d", 40+i), chatA, chatA, fmt.Sprintf("message %d", 40+i), t0.Add(time.Duration(i)*time.Minute),
		))
	}
	return f
}

func newMessageService(stores repository.Opener) *MessageService {
	return NewMessageService(stores, config.Default().Query)
}

func TestGetMessageContextWindow(t *testing.T) {
	svc := newMessageService(newStores(t, fiveMessageChat()))

	mc, err := svc.GetMessageContext(context.Background(), "msg-42", 2, 2)
	if err != nil {
		t.Fatalf("GetMessageContext() error = %v", err)
	}
	if mc.Message.ID != "msg-42" {
		t.Errorf("pivot = %s", mc.Message.ID)
	}
	if got := messageIDs(mc.Before); !slices.Equal(got, []string{"msg-40", "msg-41"}) {
		t.Errorf("before = %v", got)
	}
	if got := messageIDs(mc.After); !slices.Equal(got, []string{"msg-43", "msg-44"}) {
		t.Errorf("after = %v", got)
	}
}

func TestGetMessageContextExcludesSameTimestamp(t *testing.T) {
	f := fiveMessageChat()
	f.messages = append(f.messages,
		message("msg-42b", chatA, chatA, "same instant", t0.Add(2*time.Minute)),
		message("other-chat", chatB, chatA, "elsewhere", t0.Add(3*time.Minute)),
	)
	svc := newMessageService(newStores(t, f))

	mc, err := svc.GetMessageContext(context.Background(), "msg-42", 5, 5)
	if err != nil {
		t.Fatalf("GetMessageContext() error = %v", err)
	}
	all := append(messageIDs(mc.Before), messageIDs(mc.After)...)
	for _, id := range []string{"msg-42", "msg-42b", "other-chat"} {
		if slices.Contains(all, id) {
			t.Errorf("window contains %s: %v", id, all)
		}
	}
	if len(mc.Before) != 2 || len(mc.After) != 2 {
		t.Errorf("before=%v after=%v", messageIDs(mc.Before), messageIDs(mc.After))
	}
}

func TestGetMessageContextErrors(t *testing.T) {
	ctx := context.Background()

	svc := newMessageService(newStores(t, fiveMessageChat()))
	if _, err := svc.GetMessageContext(ctx, "missing", 1, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing pivot error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetMessageContext(ctx, "", 1, 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("blank id error = %v, want ErrInvalidInput", err)
	}

	down := newMessageService(missingStores(t))
	if _, err := down.GetMessageContext(ctx, "msg-42", 1, 1); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("missing store error = %v, want ErrStoreUnavailable", err)
	}
}

func TestListMessagesRequiresFilter(t *testing.T) {
	svc := newMessageService(missingStores(t))

	list, err := svc.ListMessages(context.Background(), ListMessagesRequest{})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(list.Messages) != 0 {
		t.Errorf("got %d messages without filters", len(list.Messages))
	}

	if _, err := svc.ListMessages(context.Background(), ListMessagesRequest{ForceLoad: true}); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("force_load against missing store error = %v", err)
	}
}

func TestListMessagesRejectsMalformedDates(t *testing.T) {
	svc := newMessageService(missingStores(t))

	for _, req := range []ListMessagesRequest{
		{After: "yesterday"},
		{Before: "2025-13-01"},
		{After: "2025-03-10T25:00:00"},
	} {
		if _, err := svc.ListMessages(context.Background(), req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%+v: error = %v, want ErrInvalidInput", req, err)
		}
	}
}

func TestListMessagesCeiling(t *testing.T) {
	f := fixture{chats: []repository.ChatModel{chat(chatA, "Juan", t0)}}
	for i := 0; i < 60; i++ {
		f.messages = append(f.messages, message(fmt.Sprintf("m%02d", i), chatA, chatA, "hi", t0.Add(time.Duration(i)*time.Second)))
	}
	svc := newMessageService(newStores(t, f))
	ctx := context.Background()

	tests := []struct {
		limit, maxResults, want int
	}{
		{100, 100, 50},
		{10, 100, 10},
		{20, 3, 3},
		{0, 0, 20},
	}
	for _, tt := range tests {
		list, err := svc.ListMessages(ctx, ListMessagesRequest{ChatJID: chatA, Limit: tt.limit, MaxResults: tt.maxResults})
		if err != nil {
			t.Fatalf("ListMessages() error = %v", err)
		}
		if len(list.Messages) != tt.want {
			t.Errorf("limit=%d max=%d: got %d, want %d", tt.limit, tt.maxResults, len(list.Messages), tt.want)
		}
	}
}

func TestListMessagesOrderingAndPaging(t *testing.T) {
	svc := newMessageService(newStores(t, fiveMessageChat()))
	ctx := context.Background()

	first, err := svc.ListMessages(ctx, ListMessagesRequest{ChatJID: chatA, Limit: 2})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	second, err := svc.ListMessages(ctx, ListMessagesRequest{ChatJID: chatA, Limit: 2, Page: 1})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}

	got := append(hitIDs(first.Messages), hitIDs(second.Messages)...)
	if want := []string{"msg-44", "msg-43", "msg-42", "msg-41"}; !slices.Equal(got, want) {
		t.Errorf("pages = %v, want %v", got, want)
	}
	if first.Messages[0].Message.ChatName != "Juan Pérez" {
		t.Errorf("chat name = %q", first.Messages[0].Message.ChatName)
	}
}

func TestListMessagesFilters(t *testing.T) {
	f := fiveMessageChat()
	f.chats = append(f.chats, chat(senderAna, "Ana", t0))
	f.messages = append(f.messages,
		message("g1", chatB, senderAna, "Discount 50% today", t0.Add(10*time.Minute)),
		message("g2", chatB, senderAna, "5 percent only", t0.Add(11*time.Minute)),
	)
	svc := newMessageService(newStores(t, f))
	ctx := context.Background()

	tests := []struct {
		name string
		req  ListMessagesRequest
		want []string
	}{
		{"query is case-insensitive", ListMessagesRequest{Query: "DISCOUNT"}, []string{"g1"}},
		{"percent is literal", ListMessagesRequest{Query: "50%"}, []string{"g1"}},
		{"sender", ListMessagesRequest{Sender: senderAna}, []string{"g2", "g1"}},
		{"after is exclusive", ListMessagesRequest{ChatJID: chatA, After: "2025-03-10T12:03:00Z"}, []string{"msg-44"}},
		{"before with offset", ListMessagesRequest{ChatJID: chatA, Before: "2025-03-10T13:01:00+01:00"}, []string{"msg-40"}},
		{"date only", ListMessagesRequest{After: "2025-03-11"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.ListMessages(ctx, tt.req)
			if err != nil {
				t.Fatalf("ListMessages() error = %v", err)
			}
			if got := hitIDs(list.Messages); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListMessagesSenderNames(t *testing.T) {
	f := fixture{
		chats: []repository.ChatModel{chat(chatB, "Team", t0), chat(senderAna, "Ana", t0)},
		messages: []repository.MessageModel{
			message("a", chatB, senderAna, "hola", t0),
			message("b", chatB, "5491100000000@s.whatsapp.net", "hey", t0.Add(time.Second)),
		},
	}
	svc := newMessageService(newStores(t, f))

	list, err := svc.ListMessages(context.Background(), ListMessagesRequest{ChatJID: chatB})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	names := map[string]string{}
	for _, h := range list.Messages {
		names[h.Message.ID] = h.Message.SenderName
	}
	if names["a"] != "Ana" || names["b"] != "" {
		t.Errorf("sender names = %v", names)
	}
}

func TestListMessagesContextCap(t *testing.T) {
	f := fixture{chats: []repository.ChatModel{chat(chatA, "Juan", t0)}}
	for i := 0; i < 16; i++ {
		content := "filler"
		if i%2 == 1 {
			content = "ping"
		}
		f.messages = append(f.messages, message(fmt.Sprintf("m%02d", i), chatA, chatA, content, t0.Add(time.Duration(i)*time.Minute)))
	}
	svc := newMessageService(newStores(t, f))

	list, err := svc.ListMessages(context.Background(), ListMessagesRequest{
		Query:          "ping",
		IncludeContext: true,
		ContextBefore:  1,
		ContextAfter:   1,
	})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(list.Messages) != 8 {
		t.Fatalf("got %d hits, want 8", len(list.Messages))
	}
	for i, hit := range list.Messages {
		expanded := len(hit.Before) > 0
		if i < 5 && !expanded {
			t.Errorf("hit %d (%s) not expanded", i, hit.Message.ID)
		}
		if i >= 5 && (expanded || len(hit.After) > 0) {
			t.Errorf("hit %d (%s) expanded past the cap", i, hit.Message.ID)
		}
	}
	if first := list.Messages[0]; first.Message.ID != "m15" || len(first.After) != 0 || messageIDs(first.Before)[0] != "m14" {
		t.Errorf("first hit = %s before=%v after=%v", first.Message.ID, messageIDs(first.Before), messageIDs(first.After))
	}
}

func TestLastInteraction(t *testing.T) {
	svc := newMessageService(newStores(t, fiveMessageChat()))
	ctx := context.Background()

	msg, err := svc.LastInteraction(ctx, chatA)
	if err != nil {
		t.Fatalf("LastInteraction() error = %v", err)
	}
	if msg.ID != "msg-44" {
		t.Errorf("last = %s, want msg-44", msg.ID)
	}
	if _, err := svc.LastInteraction(ctx, "1@s.whatsapp.net"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown jid error = %v, want ErrNotFound", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-10", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"2025-03-10T12:30:00", time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)},
		{"2025-03-10 12:30:00", time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)},
		{"2025-03-10T12:30:00-03:00", time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseTimestamp("after", tt.in)
		if err != nil {
			t.Errorf("parseTimestamp(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestListMessagesComparesInstantsAcrossOffsets(t *testing.T) {
	buenosAires := time.FixedZone("-03", -3*60*60)
	berlin := time.FixedZone("+01", 60*60)
	// Stored as text in three different offsets; chronological order is
	// early, local, late.
	f := fixture{
		chats: []repository.ChatModel{chat(chatA, "Juan Pérez", t0.Add(70*time.Minute))},
		messages: []repository.MessageModel{
			message("early", chatA, chatA, "antes", t0.Add(50*time.Minute)),
			message("local", chatA, chatA, "hola", time.Date(2025, 3, 10, 10, 0, 0, 0, buenosAires)),
			message("late", chatA, chatA, "después", time.Date(2025, 3, 10, 14, 10, 0, 0, berlin)),
		},
	}
	svc := newMessageService(newStores(t, f))
	ctx := context.Background()

	tests := []struct {
		name   string
		after  string
		before string
		want   []string
	}{
		{"after in UTC", "2025-03-10T12:55:00Z", "2025-03-10T13:05:00Z", []string{"local"}},
		{"after in the writer's zone", "2025-03-10T09:55:00-03:00", "2025-03-10T10:05:00-03:00", []string{"local"}},
		{"naive bounds are UTC", "2025-03-10T12:30:00", "", []string{"late", "local", "early"}},
		{"nothing after the last", "2025-03-10T13:10:00Z", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.ListMessages(ctx, ListMessagesRequest{ChatJID: chatA, After: tt.after, Before: tt.before})
			if err != nil {
				t.Fatalf("ListMessages() error = %v", err)
			}
			if got := hitIDs(list.Messages); !slices.Equal(got, tt.want) {
				t.Errorf("ListMessages() = %v, want %v", got, tt.want)
			}
		})
	}

	mc, err := svc.GetMessageContext(ctx, "local", 5, 5)
	if err != nil {
		t.Fatalf("GetMessageContext() error = %v", err)
	}
	if !slices.Equal(messageIDs(mc.Before), []string{"early"}) || !slices.Equal(messageIDs(mc.After), []string{"late"}) {
		t.Errorf("before = %v, after = %v", messageIDs(mc.Before), messageIDs(mc.After))
	}
	if !mc.Message.Timestamp.Equal(t0.Add(time.Hour)) {
		t.Errorf("pivot timestamp = %v", mc.Message.Timestamp)
	}
}

func hitIDs(hits []domain.MessageHit) []string {
	var out []string
	for _, h := range hits {
		out = append(out, h.Message.ID)
	}
	return out
}
