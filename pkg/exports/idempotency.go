package exports

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"

	"vizzydb/pkg/models"
)

// DefaultTenantID scopes records in single-tenant deployments. The field
// exists on every record so multi-tenancy stays a data migration, not a
// schema change.
const DefaultTenantID = "default-tenant"

// snapshotFields is the watched subset of campaign fields: exactly those
// that change the exported project. Field order is fixed so the encoding
// is canonical.
type snapshotFields struct {
	Name      string            `json:"name"`
	Status    string            `json:"status"`
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
	Owners    map[string]string `json:"owners"`
	UpdatedAt string            `json:"updatedAt"`
}

// SnapshotVersion fingerprints the campaign fields that affect the
// exported output. Stable for identical input; any watched-field change
// produces a new version. FNV-1a is not collision resistant, which is
// accepted at this scale; the idempotency key below is the one that
// carries a real digest.
func SnapshotVersion(c models.Campaign) string {
	updated := c.UpdatedAt
	if updated == "" {
		updated = c.CreatedAt
	}
	b, _ := json.Marshal(snapshotFields{
		Name:      c.Name,
		Status:    c.Status,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		Owners:    c.Owners,
		UpdatedAt: updated,
	})
	h := fnv.New64a()
	_, _ = h.Write(b)
	return fmt.Sprintf("%016x", h.Sum64())
}

// IdempotencyKey derives the dedup key for one (tenant, campaign,
// snapshot) triple: hex SHA-256 over the colon-joined inputs.
func IdempotencyKey(tenantID, campaignID, snapshotVersion string) string {
	sum := sha256.Sum256([]byte(tenantID + ":" + campaignID + ":" + snapshotVersion))
	return hex.EncodeToString(sum[:])
}
