package quoting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageAfter(t *testing.T) {
	tests := []struct {
		current Stage
		status  Status
		want    Stage
	}{
		{StageNouveau, StatusSent, StageDevis},
		{StageIntervention, StatusSent, StageIntervention},
		{StageRefuse, StatusSent, StageDevis},
		{StageDevis, StatusAccepted, StageIntervention},
		{StageNouveau, StatusAccepted, StageIntervention},
		{StageAtelier, StatusAccepted, StageAtelier},
		{StageTermine, StatusAccepted, StageTermine},
		{StageRefuse, StatusAccepted, StageIntervention},
		{StageDevis, StatusRefused, StageRefuse},
		{StageIntervention, StatusRefused, StageRefuse},
		{Stage(""), StatusAccepted, StageIntervention},
		{StageVisite, StatusDraft, StageVisite},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StageAfter(tt.current, tt.status), "%s + %s", tt.current, tt.status)
	}
}

func TestStages(t *testing.T) {
	stages := Stages()
	assert.Len(t, stages, 8)
	assert.Equal(t, StageRefuse, stages[len(stages)-1])
	for _, s := range stages {
		assert.True(t, s.Valid())
	}
	assert.False(t, Stage("archive").Valid())
}
