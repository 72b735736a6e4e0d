package domain

type ContactSource string

const (
	SourceDirectory ContactSource = "directory"
	SourceChat      ContactSource = "chat"
	// SourceSuggested marks a JID synthesized from a numeric query. It was
	// never seen in either store.
	SourceSuggested ContactSource = "suggested"
)

// ContactRecord is one entry of the merged contact view.
type ContactRecord struct {
	JID         string        `json:"jid"`
	DisplayName string        `json:"name,omitempty"`
	Source      ContactSource `json:"source"`
}

func (c ContactRecord) PhoneNumber() string {
	if IsGroupJID(c.JID) {
		return ""
	}
	return LocalPart(c.JID)
}

func (c ContactRecord) IsGroup() bool {
	return IsGroupJID(c.JID)
}

func (c ContactRecord) IsSuggestion() bool {
	return c.Source == SourceSuggested
}

// ContactMatch is a ranked resolver hit.
type ContactMatch struct {
	ContactRecord
	Score float64 `json:"score"`
}

// DirectoryEntry is a row of the directory store.
type DirectoryEntry struct {
	JID       string
	FullName  string
	FirstName string
	PushName  string
}

// DisplayName returns the first non-empty of full, first and push name.
func (d *DirectoryEntry) DisplayName() string {
	if d == nil {
		return ""
	}
	if d.FullName != "" {
		return d.FullName
	}
	if d.FirstName != "" {
		return d.FirstName
	}
	return d.PushName
}
