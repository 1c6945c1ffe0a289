package leads

import "time"

// Lead statuses. A lead leaves the pipeline through converted or lost.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusConverted = "converted"
	StatusLost      = "lost"
)

var knownStatuses = map[string]struct{}{
	StatusNew:       {},
	StatusContacted: {},
	StatusQualified: {},
	StatusConverted: {},
	StatusLost:      {},
}

// KnownStatus reports whether s is a valid lead status.
func KnownStatus(s string) bool {
	_, ok := knownStatuses[s]
	return ok
}

// Lead is a prospective customer captured before qualification.
type Lead struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Company            *string   `json:"company,omitempty"`
	Email              *string   `json:"email,omitempty"`
	Phone              *string   `json:"phone,omitempty"`
	Source             *string   `json:"source,omitempty"`
	Status             string    `json:"status"`
	Notes              *string   `json:"notes,omitempty"`
	ConvertedContactID *int64    `json:"converted_contact_id,omitempty"`
	CreatedBy          int64     `json:"created_by"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
