package grpc

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/config"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/repository"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/rpc"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/service"
)

const maria = "5491100001111@s.whatsapp.net"

type nopSender struct{}

func (nopSender) Send(context.Context, string, string) (domain.SendResult, error) {
	return domain.SendResult{Success: true, Message: "ok"}, nil
}

func (nopSender) SendFile(context.Context, string, string) (domain.SendResult, error) {
	return domain.SendResult{Success: true, Message: "ok"}, nil
}

func newClient(t *testing.T) *CoreClient {
	t.Helper()
	dir := t.TempDir()
	stores := repository.StoreConfig{
		MessagesPath:  filepath.Join(dir, "messages.db"),
		DirectoryPath: filepath.Join(dir, "whatsapp.db"),
	}
	ts := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	if err := repository.WriteMessagesStore(stores.MessagesPath,
		[]repository.ChatModel{{JID: maria, Name: repository.Ptr("María López"), LastMessageTime: repository.Ptr(ts)}},
		[]repository.MessageModel{{ID: "m1", ChatJID: maria, Sender: repository.Ptr(maria), Content: repository.Ptr("hola"), Timestamp: ts}},
	); err != nil {
		t.Fatal(err)
	}
	if err := repository.WriteDirectoryStore(stores.DirectoryPath, []repository.DirectoryContactModel{
		{OurJID: "1@s.whatsapp.net", TheirJID: maria, FullName: repository.Ptr("María López")},
	}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	opener := repository.NewAccessor(stores)
	contacts, err := service.NewContactService(opener, cfg.Ranking)
	if err != nil {
		t.Fatal(err)
	}
	d := rpc.NewDispatcher(rpc.Services{
		Contacts:       contacts,
		Messages:       service.NewMessageService(opener, cfg.Query),
		Chats:          service.NewChatService(opener, cfg.Query),
		Recipients:     service.NewRecipientService(contacts, nopSender{}),
		SmartThreshold: cfg.Ranking.SmartThreshold,
	})

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(d, ServerConfig{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewCoreClient(conn)
}

func callEnvelope(t *testing.T, c *CoreClient, method, params string) *structpb.Struct {
	t.Helper()
	in, err := RequestToStruct(rpc.Request{ID: "g-1", Method: method, Params: json.RawMessage(params)})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := c.Call(ctx, in)
	if err != nil {
		t.Fatalf("Call(%s): %v", method, err)
	}
	return out
}

func TestCallSearchContacts(t *testing.T) {
	c := newClient(t)

	out := callEnvelope(t, c, rpc.MethodSearchContacts, `{"query":"maria","limit":5}`)
	fields := out.GetFields()
	if fields["id"].GetStringValue() != "g-1" {
		t.Errorf("id = %v", fields["id"])
	}
	if _, hasErr := fields["error"]; hasErr {
		t.Fatalf("unexpected error: %v", fields["error"])
	}
	list := fields["result"].GetListValue().GetValues()
	if len(list) != 1 {
		t.Fatalf("result = %v", fields["result"])
	}
	if jid := list[0].GetStructValue().GetFields()["jid"].GetStringValue(); jid != maria {
		t.Errorf("jid = %q", jid)
	}
}

func TestCallCarriesOperationErrors(t *testing.T) {
	c := newClient(t)

	out := callEnvelope(t, c, rpc.MethodGetChat, `{"chat_jid":"nobody@s.whatsapp.net"}`)
	errField := out.GetFields()["error"].GetStructValue()
	if code := errField.GetFields()["code"].GetStringValue(); code != domain.CodeNotFound {
		t.Errorf("code = %q, want %q", code, domain.CodeNotFound)
	}
}

func TestCallRejectsMalformedEnvelope(t *testing.T) {
	c := newClient(t)

	in, err := structpb.NewStruct(map[string]any{"params": map[string]any{}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Call(context.Background(), in)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("err = %v, want InvalidArgument", err)
	}
}

func TestRequestFromStruct(t *testing.T) {
	in, err := structpb.NewStruct(map[string]any{
		"id":     "x",
		"method": rpc.MethodListMessages,
		"params": map[string]any{"chat_jid": maria, "limit": 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	req, err := RequestFromStruct(in)
	if err != nil {
		t.Fatal(err)
	}
	var p rpc.ListMessagesParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		t.Fatal(err)
	}
	if req.ID != "x" || p.ChatJID != maria || p.Limit != 3 {
		t.Errorf("req = %+v, params = %+v", req, p)
	}

	bad, _ := structpb.NewStruct(map[string]any{"method": "x", "params": "nope"})
	if _, err := RequestFromStruct(bad); err == nil {
		t.Error("expected error for non-object params")
	}
}
