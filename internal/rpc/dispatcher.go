package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/logger"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/service"
)

const (
	MethodSearchContacts         = "search_contacts"
	MethodSmartSearchContacts    = "smart_search_contacts"
	MethodListMessages           = "list_messages"
	MethodGetMessageContext      = "get_message_context"
	MethodResolveRecipient       = "resolve_recipient"
	MethodSendMessage            = "send_message"
	MethodSendFile               = "send_file"
	MethodDownloadMedia          = "download_media"
	MethodListChats              = "list_chats"
	MethodGetChat                = "get_chat"
	MethodGetDirectChatByContact = "get_direct_chat_by_contact"
	MethodGetContactChats        = "get_contact_chats"
	MethodGetLastInteraction     = "get_last_interaction"
)

// Services are the operations a Dispatcher routes to.
type Services struct {
	Contacts   *service.ContactService
	Messages   *service.MessageService
	Chats      *service.ChatService
	Recipients *service.RecipientService
	Media      *service.MediaService

	// SmartThreshold is used when smart_search_contacts omits threshold.
	SmartThreshold float64
}

type handlerFunc func(ctx context.Context, params json.RawMessage) (result any, warnings []string, err error)

type route struct {
	handle handlerFunc
	// degrade answers ErrStoreUnavailable with this empty result and a
	// warning instead of an error.
	degrade bool
	empty   any
}

type Dispatcher struct {
	svc    Services
	routes map[string]route
	log    zerolog.Logger
}

func NewDispatcher(svc Services) *Dispatcher {
	d := &Dispatcher{
		svc: svc,
		log: logger.Module("rpc"),
	}
	d.routes = map[string]route{
		MethodSearchContacts:         {handle: d.searchContacts, degrade: true, empty: []domain.ContactMatch{}},
		MethodSmartSearchContacts:    {handle: d.smartSearchContacts, degrade: true, empty: []domain.ContactMatch{}},
		MethodListMessages:           {handle: d.listMessages, degrade: true, empty: []domain.MessageHit{}},
		MethodGetMessageContext:      {handle: d.getMessageContext, degrade: true},
		MethodResolveRecipient:       {handle: d.resolveRecipient},
		MethodSendMessage:            {handle: d.sendMessage},
		MethodSendFile:               {handle: d.sendFile},
		MethodDownloadMedia:          {handle: d.downloadMedia},
		MethodListChats:              {handle: d.listChats, degrade: true, empty: []domain.Chat{}},
		MethodGetChat:                {handle: d.getChat, degrade: true},
		MethodGetDirectChatByContact: {handle: d.getDirectChatByContact, degrade: true},
		MethodGetContactChats:        {handle: d.getContactChats, degrade: true, empty: []domain.Chat{}},
		MethodGetLastInteraction:     {handle: d.getLastInteraction, degrade: true},
	}
	return d
}

// Methods lists the routable operation names in sorted order.
func (d *Dispatcher) Methods() []string {
	methods := make([]string, 0, len(d.routes))
	for name := range d.routes {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// Dispatch runs req and never returns a Go error: every failure is carried
// in the Response.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp Response) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	resp.ID = req.ID
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("method", req.Method).Msg("recovered from panic")
			resp = Response{ID: req.ID, Error: &Error{Code: domain.CodeInternal, Message: "internal server error"}}
		}
		event := d.log.Debug()
		if resp.Error != nil {
			event = d.log.Warn().Str("code", resp.Error.Code)
		}
		event.Str("id", req.ID).
			Str("method", req.Method).
			Dur("duration", time.Since(start)).
			Int("warnings", len(resp.Warnings)).
			Msg("rpc call")
	}()

	rt, ok := d.routes[req.Method]
	if !ok {
		resp.Error = &Error{Code: domain.CodeInvalidInput, Message: fmt.Sprintf("unknown method %q", req.Method)}
		return resp
	}

	result, warnings, err := rt.handle(ctx, req.Params)
	resp.Warnings = warnings
	switch {
	case err == nil:
		resp.Result = result
	case rt.degrade && errors.Is(err, domain.ErrStoreUnavailable):
		resp.Result = rt.empty
		resp.Warnings = append(resp.Warnings, err.Error())
	default:
		resp.Error = NewError(err)
	}
	return resp
}

// decode unmarshals params into dst, rejecting unknown fields.
func decode(params json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(params)) == 0 || bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: bad params: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
