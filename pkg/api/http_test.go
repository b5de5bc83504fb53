package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"vizzydb/pkg/api"
	"vizzydb/pkg/chat"
	"vizzydb/pkg/exports"
	"vizzydb/pkg/models"
	"vizzydb/pkg/store"
	"vizzydb/pkg/wrike"
)

func setup(t *testing.T) *httptest.Server {
	t.Helper()
	mem := store.NewMemory()
	srv := httptest.NewServer(api.Handler(exports.New(mem, wrike.Stub{}), chat.New(mem)))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	b, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer res.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer res.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func TestHealthz(t *testing.T) {
	srv := setup(t)
	res, out := getJSON(t, srv.URL+"/healthz")
	if res.StatusCode != http.StatusOK || out["status"] != "ok" {
		t.Fatalf("healthz: %d %v", res.StatusCode, out)
	}
}

func TestExportEndpoint(t *testing.T) {
	srv := setup(t)
	campaign := models.Campaign{ID: "c1", Name: "Fall Launch", UpdatedAt: "2025-09-01T12:00:00Z"}

	res, first := postJSON(t, srv.URL+"/v1/exports", campaign)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("first export: status %d", res.StatusCode)
	}
	if first["idempotent"] != false || first["project_id"] == "" {
		t.Fatalf("first export body: %v", first)
	}

	res, second := postJSON(t, srv.URL+"/v1/exports", campaign)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("repeat export: status %d", res.StatusCode)
	}
	if second["idempotent"] != true || second["project_id"] != first["project_id"] {
		t.Fatalf("repeat export body: %v", second)
	}

	res, _ = postJSON(t, srv.URL+"/v1/exports", models.Campaign{Name: "no id"})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing campaign id: status %d", res.StatusCode)
	}

	res, list := getJSON(t, srv.URL+"/v1/exports?campaign=c1")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", res.StatusCode)
	}
	if recs, ok := list["exports"].([]any); !ok || len(recs) != 1 {
		t.Fatalf("list body: %v", list)
	}

	res, _ = getJSON(t, srv.URL+"/v1/exports")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("list without campaign: status %d", res.StatusCode)
	}
}

func TestExportPreviewEndpoint(t *testing.T) {
	srv := setup(t)
	res, out := postJSON(t, srv.URL+"/v1/exports/preview", models.Campaign{ID: "c1", StartDate: "2025-10-01"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("preview: status %d", res.StatusCode)
	}
	if tasks, ok := out["tasks"].([]any); !ok || len(tasks) != 4 {
		t.Fatalf("preview body: %v", out)
	}
}

func TestThreadMessageFlow(t *testing.T) {
	srv := setup(t)

	res, th := getJSON(t, srv.URL+"/v1/threads/active")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("active thread: status %d", res.StatusCode)
	}
	threadID, _ := th["id"].(string)
	if threadID == "" {
		t.Fatalf("active thread body: %v", th)
	}

	// the pointer is stable across calls
	_, again := getJSON(t, srv.URL+"/v1/threads/active")
	if again["id"] != threadID {
		t.Fatalf("active thread changed: %v != %v", again["id"], threadID)
	}

	msgURL := srv.URL + "/v1/threads/" + threadID + "/messages"
	body := map[string]any{
		"author":        "user",
		"client_msg_id": "c1",
		"content":       map[string]any{"text": "hello"},
	}
	res, first := postJSON(t, msgURL, body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("append: status %d", res.StatusCode)
	}
	res, second := postJSON(t, msgURL, body)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("duplicate append: status %d", res.StatusCode)
	}
	if second["id"] != first["id"] || second["idempotent"] != true {
		t.Fatalf("duplicate append body: %v", second)
	}

	res, listed := getJSON(t, msgURL)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list messages: status %d", res.StatusCode)
	}
	msgs, _ := listed["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected one live message: %v", listed)
	}

	// validation errors
	for name, bad := range map[string]map[string]any{
		"missing client id": {"content": map[string]any{"text": "x"}},
		"missing content":   {"client_msg_id": "c2"},
		"bad author":        {"client_msg_id": "c3", "author": "robot", "content": map[string]any{"text": "x"}},
	} {
		if res, _ := postJSON(t, msgURL, bad); res.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status %d", name, res.StatusCode)
		}
	}

	// unknown thread
	res, _ = postJSON(t, srv.URL+"/v1/threads/thread_missing/messages", body)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown thread append: status %d", res.StatusCode)
	}
	res, _ = getJSON(t, srv.URL+"/v1/threads/thread_missing/messages")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown thread list: status %d", res.StatusCode)
	}
}

func TestThreadMessageLimit(t *testing.T) {
	srv := setup(t)
	_, th := getJSON(t, srv.URL+"/v1/threads/active")
	threadID := th["id"].(string)
	msgURL := srv.URL + "/v1/threads/" + threadID + "/messages"

	for _, cid := range []string{"c1", "c2", "c3"} {
		postJSON(t, msgURL, map[string]any{
			"client_msg_id": cid,
			"content":       map[string]any{"text": cid},
		})
	}

	_, out := getJSON(t, msgURL+"?limit=2")
	msgs, _ := out["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("limit ignored: %v", out)
	}
	// limit keeps the newest tail
	last, _ := msgs[1].(map[string]any)
	if content, _ := last["content"].(map[string]any); content["text"] != "c3" {
		t.Fatalf("limit dropped the tail: %v", msgs)
	}

	// zero means unlimited, not empty
	_, out = getJSON(t, msgURL+"?limit=0")
	if msgs, _ := out["messages"].([]any); len(msgs) != 3 {
		t.Fatalf("limit=0 truncated the list: %v", out)
	}
}

func TestCreateThreadEndpoint(t *testing.T) {
	srv := setup(t)
	res, th := postJSON(t, srv.URL+"/v1/threads", map[string]any{"title": "planning"})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create thread: status %d", res.StatusCode)
	}
	if th["title"] != "planning" || th["id"] == "" {
		t.Fatalf("create thread body: %v", th)
	}
}
