package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/store"
)

func genderFrame(labels ...string) *store.Table {
	t := &store.Table{
		Name:    "gender_duration_results",
		Columns: []store.Column{{Name: "gender", Type: store.TypeText}, {Name: "total_trips", Type: store.TypeInteger}},
	}
	for _, l := range labels {
		t.Rows = append(t.Rows, []any{l, int64(1)})
	}
	return t
}

var genderRules = &ValidationRules{
	RequiredColumns: []string{"gender", "total_trips"},
	NumericColumns:  []string{"total_trips"},
	AllowedValues:   map[string][]string{"gender": {model.GenderMale, model.GenderFemale}},
}

func TestValidateFrame(t *testing.T) {
	tests := []struct {
		name    string
		frame   *store.Table
		maxRows int
		rules   *ValidationRules
		wantErr string
	}{
		{name: "valid", frame: genderFrame("Female", "Male"), maxRows: 500, rules: genderRules},
		{name: "no rules", frame: genderFrame("x"), maxRows: 500},
		{name: "row cap", frame: genderFrame("Male", "Male", "Male"), maxRows: 2, wantErr: "cap is 2"},
		{name: "raw code", frame: genderFrame("Male", "0"), maxRows: 500, rules: genderRules, wantErr: "unexpected gender"},
		{
			name:    "missing column",
			frame:   genderFrame("Male"),
			maxRows: 500,
			rules:   &ValidationRules{RequiredColumns: []string{"long_trips"}},
			wantErr: "missing required column",
		},
		{
			name:    "text where number expected",
			frame:   genderFrame("Male"),
			maxRows: 500,
			rules:   &ValidationRules{NumericColumns: []string{"gender"}},
			wantErr: "must be numeric",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFrame(tt.frame, tt.maxRows, tt.rules)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyTransformations(t *testing.T) {
	rec := GenericRecord{"a": "  x ", "b": "", "c": 3}

	out, err := applyTransformations(rec, SmallDataTransformations)
	require.NoError(t, err)
	assert.Equal(t, GenericRecord{"a": "  x ", "b": nil, "c": 3}, out)
	assert.Equal(t, "", rec["b"], "input must not be modified")

	_, err = applyTransformations(rec, []string{"uppercase"})
	assert.Error(t, err)
}

func TestDefaultQueries(t *testing.T) {
	qs := DefaultQueries()
	require.Len(t, qs, len(model.ResultNames))
	for i, q := range qs {
		assert.Equal(t, model.ResultNames[i], q.Name)
		assert.NotContains(t, q.Render("trips"), tripsPlaceholder)
		assert.Contains(t, q.Render("trips"), `"trips"`)
	}
}
