package exports

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"vizzydb/pkg/models"
	"vizzydb/pkg/store"
)

// fakeCreator hands out sequential project ids and can be told to fail
// or to run a hook mid-create (used to provoke insert races).
type fakeCreator struct {
	n        int
	err      error
	onCreate func()
}

func (f *fakeCreator) Create(_ context.Context, _ models.Campaign) (string, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.err != nil {
		return "", f.err
	}
	f.n++
	return fmt.Sprintf("proj_%d", f.n), nil
}

func campaign(id, name string) models.Campaign {
	return models.Campaign{
		ID:        id,
		Name:      name,
		Status:    "planning",
		StartDate: "2025-10-01",
		EndDate:   "2025-12-15",
		Owners:    map[string]string{"creative": "Abby"},
		UpdatedAt: "2025-09-01T12:00:00Z",
	}
}

func TestCreateProject_Idempotent(t *testing.T) {
	svc := New(store.NewMemory(), &fakeCreator{})
	c := campaign("X", "Fall Launch")

	first, err := svc.CreateProject(context.Background(), c)
	if err != nil {
		t.Fatalf("first export failed: %v", err)
	}
	if first.Idempotent {
		t.Fatalf("first export reported idempotent")
	}
	if first.ProjectID == "" {
		t.Fatalf("first export returned empty project id")
	}

	second, err := svc.CreateProject(context.Background(), c)
	if err != nil {
		t.Fatalf("second export failed: %v", err)
	}
	if !second.Idempotent {
		t.Fatalf("second export with unchanged campaign not idempotent")
	}
	if second.ProjectID != first.ProjectID {
		t.Fatalf("project id changed on repeat: %s != %s", second.ProjectID, first.ProjectID)
	}
	if second.Message == "" {
		t.Fatalf("idempotent result missing explanatory message")
	}

	recs, err := svc.ListForCampaign("X")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 export record, got %d", len(recs))
	}
}

func TestCreateProject_SnapshotSensitivity(t *testing.T) {
	svc := New(store.NewMemory(), &fakeCreator{})

	a := campaign("X", "A")
	p1, err := svc.CreateProject(context.Background(), a)
	if err != nil {
		t.Fatalf("export A failed: %v", err)
	}

	b := campaign("X", "B")
	p2, err := svc.CreateProject(context.Background(), b)
	if err != nil {
		t.Fatalf("export B failed: %v", err)
	}
	if p2.Idempotent {
		t.Fatalf("name change did not produce a fresh export")
	}
	if p2.ProjectID == p1.ProjectID {
		t.Fatalf("distinct snapshots shared project id %s", p1.ProjectID)
	}

	// revert to a byte-identical snapshot: original project comes back
	again, err := svc.CreateProject(context.Background(), a)
	if err != nil {
		t.Fatalf("export revert failed: %v", err)
	}
	if !again.Idempotent || again.ProjectID != p1.ProjectID {
		t.Fatalf("identical snapshot not reused: idempotent=%v project=%s want %s",
			again.Idempotent, again.ProjectID, p1.ProjectID)
	}

	// same fields but a different watched timestamp is a new snapshot
	stale := a
	stale.UpdatedAt = "2025-09-02T12:00:00Z"
	p3, err := svc.CreateProject(context.Background(), stale)
	if err != nil {
		t.Fatalf("export with new timestamp failed: %v", err)
	}
	if p3.Idempotent || p3.ProjectID == p1.ProjectID {
		t.Fatalf("timestamp change did not produce a fresh export")
	}
}

func TestCreateProject_CampaignIsolation(t *testing.T) {
	svc := New(store.NewMemory(), &fakeCreator{})

	p1, err := svc.CreateProject(context.Background(), campaign("X", "Same Name"))
	if err != nil {
		t.Fatalf("export X failed: %v", err)
	}
	p2, err := svc.CreateProject(context.Background(), campaign("Y", "Same Name"))
	if err != nil {
		t.Fatalf("export Y failed: %v", err)
	}
	if p1.ProjectID == p2.ProjectID {
		t.Fatalf("campaigns X and Y share project id %s", p1.ProjectID)
	}
}

func TestCreateProject_MissingCampaignID(t *testing.T) {
	creator := &fakeCreator{}
	svc := New(store.NewMemory(), creator)
	_, err := svc.CreateProject(context.Background(), models.Campaign{Name: "no id"})
	if !errors.Is(err, ErrMissingCampaignID) {
		t.Fatalf("expected ErrMissingCampaignID, got %v", err)
	}
	if creator.n != 0 {
		t.Fatalf("downstream called despite invalid campaign")
	}
}

func TestCreateProject_DownstreamErrorPropagates(t *testing.T) {
	boom := errors.New("wrike unreachable")
	svc := New(store.NewMemory(), &fakeCreator{err: boom})

	_, err := svc.CreateProject(context.Background(), campaign("X", "A"))
	if !errors.Is(err, boom) {
		t.Fatalf("downstream error not propagated: %v", err)
	}

	recs, err := svc.ListForCampaign("X")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("export record persisted despite downstream failure")
	}
}

func TestCreateProject_WriteFailureSurfaces(t *testing.T) {
	mem := store.NewMemory()
	svc := New(mem, &fakeCreator{})

	disk := errors.New("disk full")
	mem.FailWrites(disk)
	if _, err := svc.CreateProject(context.Background(), campaign("X", "A")); !errors.Is(err, disk) {
		t.Fatalf("write failure swallowed: %v", err)
	}

	mem.FailWrites(nil)
	if _, err := svc.CreateProject(context.Background(), campaign("X", "A")); err != nil {
		t.Fatalf("retry after write failure did not succeed: %v", err)
	}
}

func TestCreateProject_InsertRaceReusesWinner(t *testing.T) {
	mem := store.NewMemory()
	rival := New(mem, &fakeCreator{})

	c := campaign("X", "A")
	var rivalProject string
	creator := &fakeCreator{}
	// the hook fires between the lookup and the insert, like a second
	// request landing in the window
	creator.onCreate = func() {
		creator.onCreate = nil
		res, err := rival.CreateProject(context.Background(), c)
		if err != nil {
			t.Fatalf("rival export failed: %v", err)
		}
		rivalProject = res.ProjectID
	}
	svc := New(mem, creator)

	res, err := svc.CreateProject(context.Background(), c)
	if err != nil {
		t.Fatalf("racing export failed: %v", err)
	}
	if !res.Idempotent {
		t.Fatalf("losing side of the race not reported idempotent")
	}
	if res.ProjectID != rivalProject {
		t.Fatalf("loser returned %s, want winner's %s", res.ProjectID, rivalProject)
	}

	recs, err := svc.ListForCampaign("X")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("race produced %d records, want 1", len(recs))
	}
}
