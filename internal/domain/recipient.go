package domain

type ResolutionStatus string

const (
	ResolutionResolved  ResolutionStatus = "resolved"
	ResolutionAmbiguous ResolutionStatus = "ambiguous"
	ResolutionNotFound  ResolutionStatus = "not_found"
)

// Resolution is the tri-state outcome of turning free text into a recipient.
// JID is set only when Status is resolved; Candidates only when ambiguous.
// SuggestedJID may accompany not_found when the text was a phone number that
// matched nobody; it is never sent to without the caller repeating it.
type Resolution struct {
	Status       ResolutionStatus `json:"status"`
	JID          string           `json:"jid,omitempty"`
	Contact      *ContactRecord   `json:"contact,omitempty"`
	Candidates   []ContactRecord  `json:"candidates,omitempty"`
	SuggestedJID string           `json:"suggested_jid,omitempty"`
}

func Resolved(jid string, contact *ContactRecord) Resolution {
	return Resolution{Status: ResolutionResolved, JID: jid, Contact: contact}
}

func Ambiguous(candidates []ContactRecord) Resolution {
	return Resolution{Status: ResolutionAmbiguous, Candidates: candidates}
}

func NotFound() Resolution {
	return Resolution{Status: ResolutionNotFound}
}

func NotFoundWithSuggestion(jid string) Resolution {
	return Resolution{Status: ResolutionNotFound, SuggestedJID: jid}
}

// SendResult mirrors the send collaborator's (success, status_text) reply.
type SendResult struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Resolution *Resolution `json:"resolution,omitempty"`
}
