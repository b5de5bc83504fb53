package models

// Campaign is the exportable view of a marketing campaign. Callers submit
// it as the export input; only the watched subset of fields participates
// in snapshot versioning (see pkg/exports).
type Campaign struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Status    string            `json:"status,omitempty"`
	StartDate string            `json:"startDate,omitempty"`
	EndDate   string            `json:"endDate,omitempty"`
	// Owners maps a workstream (creative, social, stores, approvals) to a person.
	Owners    map[string]string `json:"owners,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Assets    []CampaignAsset   `json:"assets,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	CreatedAt string            `json:"createdAt,omitempty"`
	UpdatedAt string            `json:"updatedAt,omitempty"`
}

type CampaignAsset struct {
	Type string `json:"type"`
	Spec string `json:"spec"`
}
