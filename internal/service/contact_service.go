package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/config"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/logger"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/repository"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/textmatch"
)

type ResolveMode string

const (
	ModeExact ResolveMode = "exact"
	ModeFuzzy ResolveMode = "fuzzy"
)

// ContactQuery describes one resolver call. Limit <= 0 means the configured
// default.
type ContactQuery struct {
	Query         string
	Limit         int
	IncludeGroups bool
	Mode          ResolveMode
}

// ContactResult is a ranked match list. Warnings name stores that could not
// be read while building it.
type ContactResult struct {
	Contacts []domain.ContactMatch `json:"contacts"`
	Warnings []string              `json:"warnings,omitempty"`
}

// ContactService merges the directory and chat stores into one candidate set
// and ranks it against free-text queries. Nothing is cached between calls.
type ContactService struct {
	stores  repository.Opener
	ranking config.RankingConfig
	fuzzy   textmatch.Scorer
	smart   textmatch.Scorer
	log     zerolog.Logger
}

func NewContactService(stores repository.Opener, ranking config.RankingConfig) (*ContactService, error) {
	fuzzy, err := textmatch.ScorerFor(textmatch.ScorerKind(ranking.FuzzyScorer))
	if err != nil {
		return nil, err
	}
	smart, err := textmatch.ScorerFor(textmatch.ScorerKind(ranking.SmartScorer))
	if err != nil {
		return nil, err
	}
	return &ContactService{
		stores:  stores,
		ranking: ranking,
		fuzzy:   fuzzy,
		smart:   smart,
		log:     logger.Module("resolver"),
	}, nil
}

type candidate struct {
	record domain.ContactRecord
	norm   string
	score  float64
}

// Resolve ranks the merged contact set against q.Query. An empty match list
// is not an error; ErrStoreUnavailable is returned only when neither store
// could be read.
func (s *ContactService) Resolve(ctx context.Context, q ContactQuery) (*ContactResult, error) {
	query, err := s.validate(q)
	if err != nil {
		return nil, err
	}

	candidates, warnings, err := s.loadCandidates(ctx, q.IncludeGroups)
	if err != nil {
		return nil, err
	}

	matches := s.rank(candidates, query, q.Mode)
	return &ContactResult{
		Contacts: s.finish(matches, query, q.Limit),
		Warnings: warnings,
	}, nil
}

// SmartSearch accepts exact-tier matches plus any candidate whose smart-scorer
// similarity reaches threshold (0..1). When nothing qualifies it falls back
// to the exact tier alone.
func (s *ContactService) SmartSearch(ctx context.Context, q ContactQuery, threshold float64) (*ContactResult, error) {
	query, err := s.validate(q)
	if err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold must be between 0 and 1, got %v", domain.ErrInvalidInput, threshold)
	}

	candidates, warnings, err := s.loadCandidates(ctx, q.IncludeGroups)
	if err != nil {
		return nil, err
	}

	floor := threshold * 100
	var matches []candidate
	for _, c := range candidates {
		if score, ok := s.exactScore(c.norm, query); ok {
			c.score = score
			matches = append(matches, c)
			continue
		}
		if score := s.smart(query, c.norm) * 100; score >= floor && score > 0 {
			c.score = s.capFuzzy(score)
			matches = append(matches, c)
		}
	}

	if len(matches) == 0 {
		s.log.Debug().Str("query", q.Query).Float64("threshold", threshold).Msg("no smart match, falling back to exact tier")
		matches = s.rank(candidates, query, ModeExact)
	}

	return &ContactResult{
		Contacts: s.finish(matches, query, q.Limit),
		Warnings: warnings,
	}, nil
}

func (s *ContactService) validate(q ContactQuery) (string, error) {
	query := textmatch.Normalize(strings.TrimSpace(q.Query))
	if query == "" {
		return "", fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}
	switch q.Mode {
	case "", ModeExact, ModeFuzzy:
	default:
		return "", fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, q.Mode)
	}
	return query, nil
}

// loadCandidates builds the merged view. Directory entries go in first and
// win; chat entries only fill JIDs the directory does not name.
func (s *ContactService) loadCandidates(ctx context.Context, includeGroups bool) ([]candidate, []string, error) {
	byJID := make(map[string]domain.ContactRecord)
	var warnings []string

	entries, dirErr := s.directoryEntries(ctx)
	if dirErr != nil {
		s.log.Warn().Err(dirErr).Msg("directory store unreadable")
		warnings = append(warnings, fmt.Sprintf("directory store unavailable: %v", dirErr))
	}
	for i := range entries {
		name := entries[i].DisplayName()
		if name == "" {
			continue
		}
		byJID[entries[i].JID] = domain.ContactRecord{
			JID:         entries[i].JID,
			DisplayName: name,
			Source:      domain.SourceDirectory,
		}
	}

	chats, chatErr := s.chatContacts(ctx)
	if chatErr != nil {
		s.log.Warn().Err(chatErr).Msg("messages store unreadable")
		warnings = append(warnings, fmt.Sprintf("messages store unavailable: %v", chatErr))
	}
	for _, record := range chats {
		if _, ok := byJID[record.JID]; ok {
			continue
		}
		byJID[record.JID] = record
	}

	if dirErr != nil && chatErr != nil {
		return nil, warnings, fmt.Errorf("%w: neither contact store could be read", domain.ErrStoreUnavailable)
	}

	candidates := make([]candidate, 0, len(byJID))
	for jid, record := range byJID {
		if !includeGroups && domain.IsGroupJID(jid) {
			continue
		}
		candidates = append(candidates, candidate{
			record: record,
			norm:   textmatch.Normalize(record.DisplayName),
		})
	}
	return candidates, warnings, nil
}

func (s *ContactService) directoryEntries(ctx context.Context) ([]domain.DirectoryEntry, error) {
	conn, err := s.stores.OpenDirectory(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return repository.NewContactRepository(conn.DB).ListNamed(ctx)
}

func (s *ContactService) chatContacts(ctx context.Context) ([]domain.ContactRecord, error) {
	conn, err := s.stores.OpenMessages(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return repository.NewChatRepository(conn.DB).ListNamed(ctx)
}

// rank scores every candidate against query. Each candidate lands in the
// first tier it qualifies for: exact, then fuzzy, then phone digits.
func (s *ContactService) rank(candidates []candidate, query string, mode ResolveMode) []candidate {
	r := s.ranking
	digits, numeric := textmatch.Digits(query)
	phoneTier := numeric && len(digits) >= r.PhoneMinDigits
	fuzzyTier := mode != ModeExact && utf8.RuneCountInString(query) >= r.FuzzyMinQueryLength

	var matches []candidate
	for _, c := range candidates {
		if score, ok := s.exactScore(c.norm, query); ok {
			c.score = score
			matches = append(matches, c)
			continue
		}
		if fuzzyTier && c.norm != "" {
			if score := s.fuzzy(query, c.norm) * 100; score >= r.FuzzyFloor {
				c.score = s.capFuzzy(score)
				matches = append(matches, c)
				continue
			}
		}
		if phoneTier && strings.Contains(domain.LocalPart(c.record.JID), digits) {
			c.score = r.PhoneDigitScore
			matches = append(matches, c)
		}
	}
	return matches
}

// exactScore scores name against query when one contains the other in the
// name-contains-query direction. Length penalties count the extra runes of
// the word(s) the match lands in, not of the whole name.
func (s *ContactService) exactScore(name, query string) (float64, bool) {
	r := s.ranking
	if name == "" {
		return 0, false
	}
	if name == query {
		return r.ExactScore, true
	}
	idx := strings.Index(name, query)
	if idx < 0 {
		return 0, false
	}

	extra := float64(wordExtra(name, idx, len(query)))
	if idx == 0 {
		return max(r.ScoreFloor, r.PrefixBase-r.PrefixLengthPenalty*extra), true
	}
	pos := float64(utf8.RuneCountInString(name[:idx]))
	return max(r.ScoreFloor, r.SubstringBase-pos*r.SubstringPositionPenalty-extra*r.SubstringLengthPenalty), true
}

// wordExtra returns how many runes the words spanning name[idx:idx+n] have
// beyond the matched n bytes.
func wordExtra(name string, idx, n int) int {
	start := strings.LastIndexByte(name[:idx], ' ') + 1
	end := len(name)
	if i := strings.IndexByte(name[idx+n:], ' '); i >= 0 {
		end = idx + n + i
	}
	return utf8.RuneCountInString(name[start:idx]) + utf8.RuneCountInString(name[idx+n:end])
}

// capFuzzy keeps similarity-based scores below an undiminished substring hit.
func (s *ContactService) capFuzzy(score float64) float64 {
	return min(score, s.ranking.SubstringBase-1)
}

// finish sorts, dedupes and truncates matches, then adds the phone-number
// suggestion for numeric queries that matched nothing.
func (s *ContactService) finish(matches []candidate, query string, limit int) []domain.ContactMatch {
	if limit <= 0 {
		limit = s.ranking.DefaultLimit
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if matches[i].norm != matches[j].norm {
			return matches[i].norm < matches[j].norm
		}
		return matches[i].record.JID < matches[j].record.JID
	})

	seen := make(map[string]struct{}, len(matches))
	result := make([]domain.ContactMatch, 0, min(len(matches), limit))
	for _, m := range matches {
		if len(result) == limit {
			break
		}
		if _, ok := seen[m.record.JID]; ok {
			continue
		}
		seen[m.record.JID] = struct{}{}
		result = append(result, domain.ContactMatch{ContactRecord: m.record, Score: m.score})
	}

	if len(result) == 0 {
		if digits, ok := textmatch.Digits(query); ok {
			result = append(result, domain.ContactMatch{
				ContactRecord: domain.ContactRecord{
					JID:    domain.NewUserJID(digits).String(),
					Source: domain.SourceSuggested,
				},
			})
		}
	}
	return result
}
