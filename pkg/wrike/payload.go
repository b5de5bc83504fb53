package wrike

import (
	"strings"

	"vizzydb/pkg/models"
)

// Task is one line item in the project's default task breakdown.
type Task struct {
	Title string `json:"title"`
	Owner string `json:"owner"`
	Due   string `json:"due,omitempty"`
}

// Payload is the project document sent to the downstream tool.
type Payload struct {
	Campaign PayloadCampaign `json:"campaign"`
	Tasks    []Task          `json:"tasks"`
}

type PayloadCampaign struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Status   string                 `json:"status"`
	Tags     []string               `json:"tags"`
	Owners   map[string]string      `json:"owners"`
	Schedule map[string]string      `json:"schedule"`
	Assets   []models.CampaignAsset `json:"assets"`
	Notes    string                 `json:"notes"`
}

// Default task owners when a campaign does not name one per workstream.
var defaultOwners = map[string]string{
	"creative":  "Abby",
	"social":    "Vanezza",
	"stores":    "Antonio",
	"approvals": "Theo",
}

// ProjectPayload maps a campaign onto the project document plus its four
// standing tasks (creative brief, social plan, store coordination,
// approvals), each due at campaign start.
func ProjectPayload(c models.Campaign) Payload {
	owner := func(stream string) string {
		if o, ok := c.Owners[stream]; ok && o != "" {
			return o
		}
		return defaultOwners[stream]
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	owners := c.Owners
	if owners == nil {
		owners = map[string]string{}
	}
	assets := c.Assets
	if assets == nil {
		assets = []models.CampaignAsset{}
	}
	return Payload{
		Campaign: PayloadCampaign{
			ID:       c.ID,
			Name:     c.Name,
			Status:   c.Status,
			Tags:     tags,
			Owners:   owners,
			Schedule: map[string]string{"startDate": c.StartDate, "endDate": c.EndDate},
			Assets:   assets,
			Notes:    c.Notes,
		},
		Tasks: []Task{
			{Title: "Creative Brief", Owner: owner("creative"), Due: c.StartDate},
			{Title: "Social Plan", Owner: owner("social"), Due: c.StartDate},
			{Title: "Stores Coordination", Owner: owner("stores"), Due: c.StartDate},
			{Title: "Approvals", Owner: owner("approvals"), Due: c.StartDate},
		},
	}
}

// TasksCSV renders tasks as a quoted CSV with a title,owner,due header.
func TasksCSV(tasks []Task) string {
	quote := func(v string) string {
		return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	rows := make([]string, 0, len(tasks)+1)
	rows = append(rows, "title,owner,due")
	for _, t := range tasks {
		rows = append(rows, quote(t.Title)+","+quote(t.Owner)+","+quote(t.Due))
	}
	return strings.Join(rows, "\n")
}
