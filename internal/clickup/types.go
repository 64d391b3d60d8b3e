package clickup

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Envelope shapes returned by the ClickUp v2 REST API.

type teamsEnvelope struct {
	Teams []Team `json:"teams"`
}

type spacesEnvelope struct {
	Spaces []Space `json:"spaces"`
}

type foldersEnvelope struct {
	Folders []Folder `json:"folders"`
}

type listsEnvelope struct {
	Lists []ListSummary `json:"lists"`
}

type tasksEnvelope struct {
	Tasks []Task `json:"tasks"`
}

// Team is a ClickUp workspace.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Space groups folders and lists inside a team.
type Space struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Folder is a customer/brand-level grouping of lists.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListSummary is one list row as returned by folder/space listing endpoints.
type ListSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TaskCount int    `json:"task_count"`
	URL       string `json:"url"`
	Archived  bool   `json:"archived"`
}

// Task is a raw ClickUp task. Date fields arrive as epoch-millisecond
// strings; custom-field values arrive as numbers, numeric strings, or
// enumerated objects carrying an orderindex.
type Task struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Status       TaskStatus    `json:"status"`
	URL          string        `json:"url"`
	DueDate      string        `json:"due_date"`
	StartDate    string        `json:"start_date"`
	CustomFields []CustomField `json:"custom_fields"`
}

type TaskStatus struct {
	Status string `json:"status"`
}

// CustomField keeps the value raw; callers decode per field domain.
type CustomField struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// StringValue returns the field value as a plain string when it is one.
func (f CustomField) StringValue() string {
	if len(f.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(f.Value, &s); err == nil {
		return s
	}
	return strings.Trim(string(f.Value), `"`)
}

// NumberValue decodes numeric fields that may be sent as a JSON number or a
// numeric string.
func (f CustomField) NumberValue() (float64, bool) {
	if len(f.Value) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(f.Value, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(f.Value, &s); err == nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// OrderIndex decodes enumerated dropdown values of the form {"orderindex": n}.
func (f CustomField) OrderIndex() (int, bool) {
	if len(f.Value) == 0 {
		return 0, false
	}
	var obj struct {
		OrderIndex *int `json:"orderindex"`
	}
	if err := json.Unmarshal(f.Value, &obj); err != nil || obj.OrderIndex == nil {
		return 0, false
	}
	return *obj.OrderIndex, true
}

// Project is one dashboard project: a flattened view of a list together
// with the folder that contains it.
type Project struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CustomerFolder string `json:"customer_folder"`
	FolderID       string `json:"folder_id"`
	SpaceID        string `json:"space_id"`
	SpaceName      string `json:"space_name"`
	TaskCount      int    `json:"task_count"`
	URL            string `json:"url"`
	Archived       bool   `json:"archived"`
}

// ConnectionStatus reports reachability of the remote API.
type ConnectionStatus struct {
	Success bool   `json:"success"`
	Teams   []Team `json:"teams,omitempty"`
	Error   string `json:"error,omitempty"`
}
