// pkg/registry/schema.go
package registry

import "encoding/json"

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one job worker as the process modeller sees it.
type Activity struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"displayName"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	TaskType    string          `json:"taskType"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
	ErrorCodes  []string        `json:"errorCodes"`
	Timeout     string          `json:"timeout"`
	Enabled     bool            `json:"enabled"`
	Tags        []string        `json:"tags,omitempty"`
}
