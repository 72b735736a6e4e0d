package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/logger"
)

// MediaDownloader fetches the media attached to a stored message. The bridge
// client implements it.
type MediaDownloader interface {
	Download(ctx context.Context, messageID, chatJID string) (domain.DownloadResult, error)
}

type MediaService struct {
	downloader MediaDownloader
	log        zerolog.Logger
}

func NewMediaService(downloader MediaDownloader) *MediaService {
	return &MediaService{
		downloader: downloader,
		log:        logger.Module("media"),
	}
}

// DownloadMedia asks the bridge to save a message's media and reports the
// resulting path. Bridge-side failures are unsuccessful results.
func (s *MediaService) DownloadMedia(ctx context.Context, messageID, chatJID string) (*domain.DownloadResult, error) {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return nil, fmt.Errorf("%w: message_id is required", domain.ErrInvalidInput)
	}
	jid, err := domain.ParseJID(chatJID)
	if err != nil {
		return nil, err
	}

	result, err := s.downloader.Download(ctx, messageID, jid.String())
	if err != nil {
		s.log.Error().Err(err).Str("message_id", messageID).Msg("download failed")
		return &domain.DownloadResult{Success: false, Message: fmt.Sprintf("Error downloading media: %v", err)}, nil
	}
	s.log.Info().Str("message_id", messageID).Bool("success", result.Success).Str("path", result.Path).Msg("media download")
	return &result, nil
}
