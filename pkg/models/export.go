package models

// ExportRecord maps one (tenant, campaign, snapshot) triple to the project
// created in the downstream tool. Records are immutable once written and
// removed only by retention cleanup.
type ExportRecord struct {
	ID              string `json:"id"`
	TenantID        string `json:"tenant_id"`
	CampaignID      string `json:"campaign_id"`
	SnapshotVersion string `json:"snapshot_version"`
	IdempotencyKey  string `json:"idempotency_key"`
	ProjectID       string `json:"project_id"`
	// CreatedAt is a wall-clock RFC3339 timestamp.
	CreatedAt string `json:"created_at"`
}
