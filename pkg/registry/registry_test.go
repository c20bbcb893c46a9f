package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *ActivityRegistry {
	return &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{ID: "recommend", TaskType: "recommend-destinations", InputSchema: json.RawMessage(`{"type":"object"}`)},
			{ID: "enrich", TaskType: "enrich-destinations"},
		},
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, sample().Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var reg ActivityRegistry
	require.NoError(t, json.Unmarshal(data, &reg))
	require.NoError(t, reg.Validate())
	require.Len(t, reg.Activities, 2)
	assert.Equal(t, "enrich-destinations", reg.Activities[0].TaskType, "sorted by task type")

	a, ok := reg.Find("recommend-destinations")
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"object"}`, string(a.InputSchema))

	_, ok = reg.Find("missing")
	assert.False(t, ok)
}

func TestSave_UnwritablePath(t *testing.T) {
	err := sample().Save(filepath.Join(t.TempDir(), "missing-dir", "registry.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *ActivityRegistry)
		errMsg string
	}{
		{"valid", func(r *ActivityRegistry) {}, ""},
		{"missing task type", func(r *ActivityRegistry) { r.Activities[0].TaskType = "" }, "required"},
		{"duplicate task type", func(r *ActivityRegistry) { r.Activities[1].TaskType = r.Activities[0].TaskType }, "duplicate"},
		{"bad schema", func(r *ActivityRegistry) { r.Activities[0].InputSchema = json.RawMessage(`{`) }, "not valid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sample()
			tt.mutate(r)
			err := r.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
