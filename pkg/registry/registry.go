// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Save writes the registry as indented JSON, activities sorted by task type.
func (r *ActivityRegistry) Save(path string) error {
	r.sort()
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Validate checks that every activity has an id and task type, that task
// types are unique and that input schemas are well-formed JSON.
func (r *ActivityRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Activities))
	for i, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			return fmt.Errorf("activity %d: id and taskType are required", i)
		}
		if seen[a.TaskType] {
			return fmt.Errorf("activity %s: duplicate taskType %q", a.ID, a.TaskType)
		}
		seen[a.TaskType] = true
		if len(a.InputSchema) > 0 && !json.Valid(a.InputSchema) {
			return fmt.Errorf("activity %s: input schema is not valid JSON", a.ID)
		}
	}
	return nil
}

func (r *ActivityRegistry) sort() {
	sort.Slice(r.Activities, func(i, j int) bool {
		return r.Activities[i].TaskType < r.Activities[j].TaskType
	})
}
