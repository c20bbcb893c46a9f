// internal/workers/registry.go
package workers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"creator-trips/internal/common/config"
	"creator-trips/internal/common/errors"
	"creator-trips/pkg/registry"

	nq "creator-trips/internal/workers/interview/next-question"
	ed "creator-trips/internal/workers/recommendation/enrich-destinations"
	rd "creator-trips/internal/workers/recommendation/recommend-destinations"
)

const registryVersion = "1.0.0"

// Registry describes every job worker this service can run, with enabled
// flags and timeouts taken from cfg.
func Registry(cfg *config.Config) *registry.ActivityRegistry {
	activity := func(taskType, name, desc, category, schema string, codes ...errors.ErrorCode) registry.Activity {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		out := registry.Activity{
			ID:          taskType,
			DisplayName: name,
			Description: desc,
			Category:    category,
			TaskType:    taskType,
			InputSchema: json.RawMessage(schema),
			Timeout:     config.GetDuration(wcfg.Timeout).String(),
			Enabled:     wcfg.Enabled,
		}
		for _, c := range codes {
			out.ErrorCodes = append(out.ErrorCodes, string(c))
		}
		return out
	}

	return &registry.ActivityRegistry{
		Version: registryVersion,
		Activities: []registry.Activity{
			activity(nq.TaskType, "Next Interview Question",
				"Records the latest answer and returns the next preference question, or the final preferences.",
				"interview", nq.InputSchema,
				errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSession,
				errors.ErrCodeAnswerAlreadyRecorded, errors.ErrCodeInvalidPreferences),
			activity(ed.TaskType, "Enrich Destinations",
				"Fills taste, cost, creator, social and event signals from providers with fallbacks.",
				"recommendation", ed.InputSchema,
				errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPreferences, errors.ErrCodeEnrichmentFailed),
			activity(rd.TaskType, "Recommend Destinations",
				"Filters, scores, gates and ranks enriched destinations against the budget.",
				"recommendation", rd.InputSchema,
				errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPreferences, errors.ErrCodeRecommendationFailed),
		},
	}
}

// ActivitiesHandler serves the whole registry, or one activity when the
// taskType query parameter is set.
func ActivitiesHandler(reg *registry.ActivityRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskType := r.URL.Query().Get("taskType")
		if taskType == "" {
			writeJSON(w, http.StatusOK, reg)
			return
		}
		a, ok := reg.Find(taskType)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": fmt.Sprintf("no activity for task type %q", taskType),
			})
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
