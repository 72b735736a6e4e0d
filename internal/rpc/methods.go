package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/service"
)

type SearchContactsParams struct {
	Query         string `json:"query"`
	Limit         int    `json:"limit,omitempty"`
	IncludeGroups bool   `json:"include_groups,omitempty"`
	Mode          string `json:"mode,omitempty"`
}

type SmartSearchContactsParams struct {
	Query         string   `json:"query"`
	Limit         int      `json:"limit,omitempty"`
	IncludeGroups bool     `json:"include_groups,omitempty"`
	Threshold     *float64 `json:"threshold,omitempty"`
}

type ListMessagesParams struct {
	After             string `json:"after,omitempty"`
	Before            string `json:"before,omitempty"`
	Sender            string `json:"sender,omitempty"`
	SenderPhoneNumber string `json:"sender_phone_number,omitempty"`
	ChatJID           string `json:"chat_jid,omitempty"`
	Query             string `json:"query,omitempty"`
	Limit             int    `json:"limit,omitempty"`
	Page              int    `json:"page,omitempty"`
	IncludeContext    *bool  `json:"include_context,omitempty"`
	ContextBefore     *int   `json:"context_before,omitempty"`
	ContextAfter      *int   `json:"context_after,omitempty"`
	MaxResults        int    `json:"max_results,omitempty"`
	ForceLoad         bool   `json:"force_load,omitempty"`
}

type MessageContextParams struct {
	MessageID string `json:"message_id"`
	Before    *int   `json:"before,omitempty"`
	After     *int   `json:"after,omitempty"`
}

type RecipientParams struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message,omitempty"`
}

type SendFileParams struct {
	Recipient string `json:"recipient"`
	MediaPath string `json:"media_path"`
}

type DownloadMediaParams struct {
	MessageID string `json:"message_id"`
	ChatJID   string `json:"chat_jid"`
}

type ListChatsParams struct {
	Query              string `json:"query,omitempty"`
	Limit              int    `json:"limit,omitempty"`
	Page               int    `json:"page,omitempty"`
	IncludeLastMessage *bool  `json:"include_last_message,omitempty"`
	SortBy             string `json:"sort_by,omitempty"`
}

type ChatParams struct {
	ChatJID            string `json:"chat_jid"`
	IncludeLastMessage *bool  `json:"include_last_message,omitempty"`
}

type PhoneParams struct {
	SenderPhoneNumber string `json:"sender_phone_number"`
}

type JIDParams struct {
	JID   string `json:"jid"`
	Limit int    `json:"limit,omitempty"`
	Page  int    `json:"page,omitempty"`
}

func (d *Dispatcher) searchContacts(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p SearchContactsParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	result, err := d.svc.Contacts.Resolve(ctx, p.contactQuery(service.ModeFuzzy))
	if err != nil {
		return nil, nil, err
	}
	return result.Contacts, result.Warnings, nil
}

func (d *Dispatcher) smartSearchContacts(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p SmartSearchContactsParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	threshold := d.svc.SmartThreshold
	if p.Threshold != nil {
		threshold = *p.Threshold
	}
	result, err := d.svc.Contacts.SmartSearch(ctx, service.ContactQuery{
		Query:         p.Query,
		Limit:         p.Limit,
		IncludeGroups: p.IncludeGroups,
		Mode:          service.ModeFuzzy,
	}, threshold)
	if err != nil {
		return nil, nil, err
	}
	return result.Contacts, result.Warnings, nil
}

func (p SearchContactsParams) contactQuery(defaultMode service.ResolveMode) service.ContactQuery {
	mode := service.ResolveMode(p.Mode)
	if mode == "" {
		mode = defaultMode
	}
	return service.ContactQuery{
		Query:         p.Query,
		Limit:         p.Limit,
		IncludeGroups: p.IncludeGroups,
		Mode:          mode,
	}
}

func (d *Dispatcher) listMessages(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p ListMessagesParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	list, err := d.svc.Messages.ListMessages(ctx, p.Request())
	if err != nil {
		return nil, nil, err
	}
	return list.Messages, nil, nil
}

// Request maps wire params onto the service request. Omitted context sizes
// become -1 so the service applies its defaults.
func (p ListMessagesParams) Request() service.ListMessagesRequest {
	sender := p.Sender
	if sender == "" {
		sender = p.SenderPhoneNumber
	}
	return service.ListMessagesRequest{
		After:          p.After,
		Before:         p.Before,
		Sender:         sender,
		ChatJID:        p.ChatJID,
		Query:          p.Query,
		Limit:          p.Limit,
		Page:           p.Page,
		MaxResults:     p.MaxResults,
		IncludeContext: boolOr(p.IncludeContext, true),
		ContextBefore:  intOr(p.ContextBefore, -1),
		ContextAfter:   intOr(p.ContextAfter, -1),
		ForceLoad:      p.ForceLoad,
	}
}

func (d *Dispatcher) getMessageContext(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p MessageContextParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	mc, err := d.svc.Messages.GetMessageContext(ctx, p.MessageID, intOr(p.Before, -1), intOr(p.After, -1))
	if err != nil {
		return nil, nil, err
	}
	return mc, nil, nil
}

func (d *Dispatcher) resolveRecipient(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p RecipientParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	res, err := d.svc.Recipients.Disambiguate(ctx, p.Recipient)
	if err != nil {
		return nil, nil, err
	}
	return res, nil, nil
}

func (d *Dispatcher) sendMessage(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p RecipientParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	res, err := d.svc.Recipients.SendMessage(ctx, p.Recipient, p.Message)
	if err != nil {
		return nil, nil, err
	}
	return res, nil, nil
}

func (d *Dispatcher) sendFile(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p SendFileParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	res, err := d.svc.Recipients.SendFile(ctx, p.Recipient, p.MediaPath)
	if err != nil {
		return nil, nil, err
	}
	return res, nil, nil
}

func (d *Dispatcher) downloadMedia(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p DownloadMediaParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	if d.svc.Media == nil {
		return nil, nil, errors.New("media downloads are not configured")
	}
	res, err := d.svc.Media.DownloadMedia(ctx, p.MessageID, p.ChatJID)
	if err != nil {
		return nil, nil, err
	}
	return res, nil, nil
}

func (d *Dispatcher) listChats(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p ListChatsParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	chats, err := d.svc.Chats.ListChats(ctx, domain.ChatFilter{
		Query:              p.Query,
		Limit:              p.Limit,
		Page:               p.Page,
		IncludeLastMessage: boolOr(p.IncludeLastMessage, true),
		SortBy:             domain.ChatSort(p.SortBy),
	})
	if err != nil {
		return nil, nil, err
	}
	return chats, nil, nil
}

func (d *Dispatcher) getChat(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p ChatParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	chat, err := d.svc.Chats.GetChat(ctx, p.ChatJID, boolOr(p.IncludeLastMessage, true))
	if err != nil {
		return nil, nil, err
	}
	return chat, nil, nil
}

func (d *Dispatcher) getDirectChatByContact(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p PhoneParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	chat, err := d.svc.Chats.GetDirectChatByContact(ctx, p.SenderPhoneNumber)
	if err != nil {
		return nil, nil, err
	}
	return chat, nil, nil
}

func (d *Dispatcher) getContactChats(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p JIDParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	chats, err := d.svc.Chats.GetContactChats(ctx, p.JID, p.Limit, p.Page)
	if err != nil {
		return nil, nil, err
	}
	return chats, nil, nil
}

func (d *Dispatcher) getLastInteraction(ctx context.Context, raw json.RawMessage) (any, []string, error) {
	var p JIDParams
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}
	if p.Limit != 0 || p.Page != 0 {
		return nil, nil, fmt.Errorf("%w: get_last_interaction takes only jid", domain.ErrInvalidInput)
	}
	msg, err := d.svc.Messages.LastInteraction(ctx, p.JID)
	if err != nil {
		return nil, nil, err
	}
	return msg, nil, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
