package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw     string
		want    Category
		wantErr bool
	}{
		{raw: "formal", want: CategoryFormal},
		{raw: "epistemic", want: CategoryEpistemic},
		{raw: "", want: ""},
		{raw: "Formal", wantErr: true},
		{raw: "artistic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCategory(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategory_SpecializationFields(t *testing.T) {
	want := map[Category][]string{
		CategoryFormal:     {"physics", "math"},
		CategoryNormative:  {"policy", "ethics"},
		CategoryProcedural: {"code", "debugging"},
		CategoryStrategic:  {"finance", "strategy"},
		CategoryEpistemic:  {"knowledge", "communication"},
	}

	for _, c := range Categories() {
		assert.Equal(t, want[c], c.SpecializationFields(), c.String())
	}
	assert.Nil(t, Category("").SpecializationFields())
	assert.Len(t, Categories(), 5)
}

func TestPathology_Valid(t *testing.T) {
	for _, p := range Pathologies() {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, Pathology("hallucination").Valid())
	assert.Len(t, Pathologies(), 5)
}

func TestInScoreRange(t *testing.T) {
	assert.True(t, InScoreRange(1))
	assert.True(t, InScoreRange(10))
	assert.True(t, InScoreRange(5.5))
	assert.False(t, InScoreRange(0.99))
	assert.False(t, InScoreRange(10.01))
}

func TestIsOptionalBehavior(t *testing.T) {
	assert.True(t, IsOptionalBehavior(FieldComparison))
	assert.True(t, IsOptionalBehavior(FieldPreference))
	assert.False(t, IsOptionalBehavior(FieldTruthfulness))
}

func TestBehaviorScore_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want BehaviorScore
	}{
		{name: "number", in: `7.5`, want: Score(7.5)},
		{name: "marker", in: `"N/A"`, want: NA()},
		{name: "other string", in: `"n/a"`, want: NA()},
		{name: "null", in: `null`, want: NA()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got BehaviorScore
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	out, err := json.Marshal(BehaviorScores{FieldComparison: NA(), FieldLiteracy: Score(6)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"comparison":"N/A","literacy":6}`, string(out))
}

func TestBehaviorScores_Canonical(t *testing.T) {
	bs := behaviorOf(1, 2, 3, 4, 5, 6)
	scores, ok := bs.Canonical()
	require.True(t, ok)
	assert.Equal(t, [6]float64{1, 2, 3, 4, 5, 6}, scores)

	bs[FieldPreference] = NA()
	_, ok = bs.Canonical()
	assert.False(t, ok)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, bs.NumericValues())
	assert.Equal(t, "N/A", bs[FieldPreference].String())
	assert.Equal(t, "4", bs[FieldLiteracy].String())
}
