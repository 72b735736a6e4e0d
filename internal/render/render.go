// Package render turns operation results into the plain text shown to MCP
// clients and the interactive shell.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
)

const previewRunes = 60

// Result renders v by its dynamic type. Unknown types fall back to
// indented JSON.
func Result(v any) string {
	switch r := v.(type) {
	case []domain.ContactMatch:
		return Contacts(r)
	case []domain.MessageHit:
		return Hits(r)
	case *domain.MessageContext:
		return Context(r)
	case domain.Resolution:
		return Resolution(r)
	case *domain.SendResult:
		return SendResult(r)
	case *domain.DownloadResult:
		return DownloadResult(r)
	case []domain.Chat:
		return Chats(r)
	case *domain.Chat:
		return Chat(r)
	case *domain.Message:
		if r == nil {
			return "No interaction found."
		}
		return Message(*r)
	case nil:
		return "No result."
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

func Contacts(contacts []domain.ContactMatch) string {
	if len(contacts) == 0 {
		return "No contacts found."
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d contact(s):\n\n", len(contacts)))

	for i, c := range contacts {
		name := c.DisplayName
		if name == "" {
			name = c.PhoneNumber()
		}
		kind := "Private"
		if c.IsGroup() {
			kind = "Group"
		}
		result.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, name, kind))
		result.WriteString(fmt.Sprintf("   JID: %s\n", c.JID))
		if c.IsSuggestion() {
			result.WriteString("   Not in your contacts; built from the number\n")
		}
		result.WriteString(fmt.Sprintf("   Score: %.0f\n\n", c.Score))
	}

	return result.String()
}

func Hits(hits []domain.MessageHit) string {
	if len(hits) == 0 {
		return "No messages found."
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d message(s):\n\n", len(hits)))

	for _, hit := range hits {
		writeWindow(&result, hit.Before, hit.Message, hit.After)
		if len(hit.Before)+len(hit.After) > 0 {
			result.WriteString("\n")
		}
	}

	return result.String()
}

func Context(mc *domain.MessageContext) string {
	if mc == nil {
		return "No context available."
	}
	var result strings.Builder
	writeWindow(&result, mc.Before, mc.Message, mc.After)
	return result.String()
}

// writeWindow marks the pivot with an arrow between its neighbours.
func writeWindow(b *strings.Builder, before []domain.Message, pivot domain.Message, after []domain.Message) {
	for _, m := range before {
		b.WriteString("   " + Message(m) + "\n")
	}
	b.WriteString("-> " + Message(pivot) + "\n")
	for _, m := range after {
		b.WriteString("   " + Message(m) + "\n")
	}
}

func Chats(chats []domain.Chat) string {
	if len(chats) == 0 {
		return "No chats found."
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d chat(s):\n\n", len(chats)))
	for i := range chats {
		result.WriteString(fmt.Sprintf("%d. ", i+1))
		result.WriteString(Chat(&chats[i]))
		result.WriteString("\n")
	}
	return result.String()
}

func Chat(chat *domain.Chat) string {
	if chat == nil {
		return "Chat not available."
	}

	var result strings.Builder

	chatType := "Private"
	if chat.IsGroup() {
		chatType = "Group"
	}
	name := chat.Name
	if name == "" {
		name = domain.LocalPart(chat.JID)
	}

	result.WriteString(fmt.Sprintf("%s (%s)\n", name, chatType))
	result.WriteString(fmt.Sprintf("   ID: %s\n", chat.JID))

	if chat.LastMessage != nil && *chat.LastMessage != "" {
		text := preview(*chat.LastMessage)
		if chat.LastIsFromMe != nil && *chat.LastIsFromMe {
			text = "You: " + text
		}
		result.WriteString(fmt.Sprintf("   Last: %s\n", text))
	}
	if chat.LastMessageTime != nil {
		result.WriteString(fmt.Sprintf("   Time: %s\n", chat.LastMessageTime.Format("2006-01-02 15:04")))
	}
	return result.String()
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes]) + "..."
}

// Message renders one line: time, chat, sender, content and id.
func Message(m domain.Message) string {
	sender := m.SenderName
	if sender == "" {
		sender = m.Sender
	}
	if m.IsFromMe {
		sender = "Me"
	}

	content := m.Content
	if m.MediaType != "" {
		content = fmt.Sprintf("[%s] %s", m.MediaType, content)
	}

	prefix := fmt.Sprintf("[%s]", m.Timestamp.Format("2006-01-02 15:04:05"))
	if m.ChatName != "" {
		prefix += " Chat: " + m.ChatName
	}
	return fmt.Sprintf("%s From: %s: %s (id %s)", prefix, sender, content, m.ID)
}

func Resolution(res domain.Resolution) string {
	switch res.Status {
	case domain.ResolutionResolved:
		if res.Contact != nil && res.Contact.DisplayName != "" {
			return fmt.Sprintf("Resolved to %s (%s)", res.Contact.DisplayName, res.JID)
		}
		return fmt.Sprintf("Resolved to %s", res.JID)
	case domain.ResolutionAmbiguous:
		var result strings.Builder
		result.WriteString(fmt.Sprintf("Ambiguous recipient, %d candidates:\n", len(res.Candidates)))
		for i, c := range res.Candidates {
			result.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, c.DisplayName, c.JID))
		}
		result.WriteString("Ask which one is meant and retry with the JID.")
		return result.String()
	default:
		if res.SuggestedJID != "" {
			return fmt.Sprintf("No contact matches this recipient. The number is not a saved contact; use %s to address it directly.", res.SuggestedJID)
		}
		return "No contact matches this recipient."
	}
}

func SendResult(res *domain.SendResult) string {
	if res == nil {
		return "No send result."
	}
	if res.Success {
		jid := ""
		if res.Resolution != nil {
			jid = res.Resolution.JID
		}
		return fmt.Sprintf("Message sent to %s. %s", jid, res.Message)
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Message not sent: %s\n", res.Message))
	if res.Resolution != nil && res.Resolution.Status == domain.ResolutionAmbiguous {
		result.WriteString("\n")
		result.WriteString(Resolution(*res.Resolution))
	}
	return result.String()
}

func DownloadResult(res *domain.DownloadResult) string {
	switch {
	case res == nil:
		return "No download result."
	case res.Success:
		return fmt.Sprintf("Media downloaded to %s", res.Path)
	default:
		return fmt.Sprintf("Download failed: %s", res.Message)
	}
}
