package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/logger"
)

// disambiguationLimit bounds the candidate list shown on an ambiguous match.
const disambiguationLimit = 25

// MessageSender delivers text or a file to a single resolved JID. The bridge
// client implements it.
type MessageSender interface {
	Send(ctx context.Context, recipientJID, message string) (domain.SendResult, error)
	SendFile(ctx context.Context, recipientJID, mediaPath string) (domain.SendResult, error)
}

// RecipientService turns free text into exactly one destination, or refuses.
type RecipientService struct {
	contacts *ContactService
	sender   MessageSender
	log      zerolog.Logger
}

func NewRecipientService(contacts *ContactService, sender MessageSender) *RecipientService {
	return &RecipientService{
		contacts: contacts,
		sender:   sender,
		log:      logger.Module("recipient"),
	}
}

// Disambiguate resolves text to a recipient. Literal JIDs are validated and
// stripped of any device suffix but never looked up. It never picks among
// several candidates, and a number known to neither store is not_found with
// the synthesized JID attached.
func (s *RecipientService) Disambiguate(ctx context.Context, text string) (domain.Resolution, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Resolution{}, fmt.Errorf("%w: recipient must not be empty", domain.ErrInvalidInput)
	}
	if domain.LooksLikeJID(text) {
		jid, err := domain.ParseJID(text)
		if err != nil {
			return domain.Resolution{}, err
		}
		return domain.Resolved(jid.String(), nil), nil
	}

	result, err := s.contacts.Resolve(ctx, ContactQuery{
		Query:         text,
		Limit:         disambiguationLimit,
		IncludeGroups: true,
		Mode:          ModeFuzzy,
	})
	if err != nil {
		return domain.Resolution{}, err
	}

	switch len(result.Contacts) {
	case 0:
		return domain.NotFound(), nil
	case 1:
		contact := result.Contacts[0].ContactRecord
		if contact.IsSuggestion() {
			return domain.NotFoundWithSuggestion(contact.JID), nil
		}
		return domain.Resolved(contact.JID, &contact), nil
	default:
		candidates := make([]domain.ContactRecord, len(result.Contacts))
		for i, m := range result.Contacts {
			candidates[i] = m.ContactRecord
		}
		return domain.Ambiguous(candidates), nil
	}
}

// SendMessage delivers message only when recipient resolves to exactly one
// JID. Ambiguous and unknown recipients come back as unsuccessful results
// carrying the resolution.
func (s *RecipientService) SendMessage(ctx context.Context, recipient, message string) (*domain.SendResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message must not be empty", domain.ErrInvalidInput)
	}
	return s.deliver(ctx, recipient, "message", func(jid string) (domain.SendResult, error) {
		return s.sender.Send(ctx, jid, message)
	})
}

// SendFile sends the file at mediaPath under the same rules as SendMessage.
// The path must name a regular file on this host.
func (s *RecipientService) SendFile(ctx context.Context, recipient, mediaPath string) (*domain.SendResult, error) {
	mediaPath = strings.TrimSpace(mediaPath)
	if mediaPath == "" {
		return nil, fmt.Errorf("%w: media_path must not be empty", domain.ErrInvalidInput)
	}
	if info, err := os.Stat(mediaPath); err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: media file not found: %s", domain.ErrInvalidInput, mediaPath)
	}
	return s.deliver(ctx, recipient, "file", func(jid string) (domain.SendResult, error) {
		return s.sender.SendFile(ctx, jid, mediaPath)
	})
}

func (s *RecipientService) deliver(ctx context.Context, recipient, kind string, send func(jid string) (domain.SendResult, error)) (*domain.SendResult, error) {
	resolution, err := s.Disambiguate(ctx, recipient)
	if err != nil {
		return nil, err
	}

	switch resolution.Status {
	case domain.ResolutionNotFound:
		text := fmt.Sprintf("No contact matches %q", strings.TrimSpace(recipient))
		if resolution.SuggestedJID != "" {
			text += fmt.Sprintf("; send to %s explicitly to use the number as is", resolution.SuggestedJID)
		}
		return &domain.SendResult{
			Success:    false,
			Message:    text,
			Resolution: &resolution,
		}, nil
	case domain.ResolutionAmbiguous:
		return &domain.SendResult{
			Success:    false,
			Message:    fmt.Sprintf("%d contacts match %q; specify one of the candidate JIDs", len(resolution.Candidates), strings.TrimSpace(recipient)),
			Resolution: &resolution,
		}, nil
	}

	result, err := send(resolution.JID)
	if err != nil {
		s.log.Error().Err(err).Str("jid", resolution.JID).Str("kind", kind).Msg("send failed")
		return &domain.SendResult{
			Success:    false,
			Message:    fmt.Sprintf("Error sending %s: %v", kind, err),
			Resolution: &resolution,
		}, nil
	}
	s.log.Info().Str("jid", resolution.JID).Str("kind", kind).Bool("success", result.Success).Msg("handed to bridge")
	result.Resolution = &resolution
	return &result, nil
}
