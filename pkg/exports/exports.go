// Package exports guards the downstream create-project side effect so it
// runs at most once per distinct campaign snapshot. Repeated requests for
// an unchanged campaign observe the original outcome.
package exports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vizzydb/pkg/logger"
	"vizzydb/pkg/models"
	"vizzydb/pkg/store"
	"vizzydb/pkg/telemetry"
	"vizzydb/pkg/utils"
	"vizzydb/pkg/wrike"
)

var (
	// ErrDuplicateKey signals the unique-key check on insert. Callers never
	// see it; CreateProject converts the race into an idempotent reuse.
	ErrDuplicateKey = errors.New("export idempotency key already exists")

	ErrMissingCampaignID = errors.New("campaign id is required")
)

// Result is the outcome of a CreateProject call. Idempotent is false only
// when this call performed the downstream create.
type Result struct {
	ProjectID      string `json:"project_id"`
	Idempotent     bool   `json:"idempotent"`
	IdempotencyKey string `json:"idempotency_key"`
	Message        string `json:"message,omitempty"`
}

// Service owns the export-record collection. Callers never construct or
// mutate records directly.
type Service struct {
	records  *store.Collection[models.ExportRecord]
	creator  wrike.Creator
	tenantID string
}

func New(rs store.RecordStore, creator wrike.Creator) *Service {
	return &Service{
		records:  store.NewCollection[models.ExportRecord](rs, store.KeyExports),
		creator:  creator,
		tenantID: DefaultTenantID,
	}
}

// CreateProject exports the campaign's current state, creating the
// downstream project only if no record exists for this snapshot. Any
// store failure surfaces as an error; callers should treat it as "export
// status unknown, safe to retry".
func (s *Service) CreateProject(ctx context.Context, c models.Campaign) (Result, error) {
	if c.ID == "" {
		return Result{}, ErrMissingCampaignID
	}
	snapshot := SnapshotVersion(c)
	key := IdempotencyKey(s.tenantID, c.ID, snapshot)

	existing, err := s.findByKey(key)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		telemetry.ExportsReused.Inc()
		logger.Info("export_reused", "campaign", c.ID, "project", existing.ProjectID)
		return Result{
			ProjectID:      existing.ProjectID,
			Idempotent:     true,
			IdempotencyKey: key,
			Message:        "campaign snapshot already exported; returning existing project",
		}, nil
	}

	projectID, err := s.creator.Create(ctx, c)
	if err != nil {
		// downstream failures propagate unchanged; no retry here
		return Result{}, err
	}

	rec := models.ExportRecord{
		ID:              utils.GenExportID(),
		TenantID:        s.tenantID,
		CampaignID:      c.ID,
		SnapshotVersion: snapshot,
		IdempotencyKey:  key,
		ProjectID:       projectID,
		CreatedAt:       utils.NowISO(),
	}
	err = s.records.Update(func(items []models.ExportRecord) ([]models.ExportRecord, error) {
		for _, r := range items {
			if r.IdempotencyKey == key {
				return nil, ErrDuplicateKey
			}
		}
		return append(items, rec), nil
	})
	if errors.Is(err, ErrDuplicateKey) {
		// Lost the insert race: another request exported the same snapshot
		// between our lookup and write. Reuse its record; the downstream
		// system is expected to tolerate the orphaned duplicate project.
		winner, ferr := s.findByKey(key)
		if ferr != nil {
			return Result{}, ferr
		}
		if winner == nil {
			return Result{}, fmt.Errorf("export record for key %s vanished after duplicate insert", key)
		}
		telemetry.ExportsReused.Inc()
		logger.Warn("export_insert_race", "campaign", c.ID, "kept", winner.ProjectID, "orphaned", projectID)
		return Result{
			ProjectID:      winner.ProjectID,
			Idempotent:     true,
			IdempotencyKey: key,
			Message:        "concurrent export won; returning existing project",
		}, nil
	}
	if err != nil {
		return Result{}, err
	}

	telemetry.ExportsCreated.Inc()
	logger.Info("export_created", "campaign", c.ID, "project", projectID, "snapshot", snapshot)
	return Result{ProjectID: projectID, IdempotencyKey: key}, nil
}

// ListForCampaign returns the export history for one campaign.
func (s *Service) ListForCampaign(campaignID string) ([]models.ExportRecord, error) {
	items, err := s.records.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []models.ExportRecord
	for _, r := range items {
		if r.CampaignID == campaignID {
			out = append(out, r)
		}
	}
	return out, nil
}

// CleanupOlderThan removes export records created before now-age and
// returns how many were dropped. Records with unparsable timestamps are
// kept.
func (s *Service) CleanupOlderThan(age time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-age)
	removed := 0
	err := s.records.Update(func(items []models.ExportRecord) ([]models.ExportRecord, error) {
		kept := items[:0]
		for _, r := range items {
			ts, perr := time.Parse(time.RFC3339Nano, r.CreatedAt)
			if perr == nil && ts.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		telemetry.RetentionRemoved.WithLabelValues("exports").Add(float64(removed))
	}
	return removed, nil
}

func (s *Service) findByKey(key string) (*models.ExportRecord, error) {
	items, err := s.records.ReadAll()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].IdempotencyKey == key {
			return &items[i], nil
		}
	}
	return nil, nil
}
