package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReasoningChain_RenumbersAndAverages(t *testing.T) {
	chain := NewReasoningChain([]ReasoningStep{
		{StepNumber: 4, Text: "All men are mortal", Confidence: 0.9, Type: StepPremise},
		{StepNumber: 9, Text: "Socrates is a man", Confidence: 0.7, Type: StepPremise},
		{StepNumber: 2, Text: "Therefore Socrates is mortal", Confidence: 0.8, Type: StepConclusion},
	}, Deductive)

	require.Len(t, chain.Steps, 3)
	for i, s := range chain.Steps {
		assert.Equal(t, i+1, s.StepNumber)
		assert.NotNil(t, s.EvidenceUsed)
	}
	assert.InDelta(t, 0.8, chain.OverallConfidence, 1e-9)
	assert.Equal(t, Deductive, chain.ReasoningType)
}

func TestNewReasoningChain_Empty(t *testing.T) {
	chain := NewReasoningChain(nil, Inductive)

	assert.Equal(t, 0.0, chain.OverallConfidence)
	assert.Equal(t, 0.0, chain.LogicalValidity)
	assert.NotNil(t, chain.Steps)
	assert.NotNil(t, chain.Fallacies)
	assert.NotNil(t, chain.LogicalGaps)
	assert.NotNil(t, chain.Counterarguments)
	assert.NotNil(t, chain.EvidenceRequirements)
	assert.NotNil(t, chain.Assumptions)
	assert.NotNil(t, chain.Weaknesses)
}

func TestReasoningChain_JSONListsNeverNull(t *testing.T) {
	chain := NewReasoningChain(nil, Abductive)

	data, err := json.Marshal(chain)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"steps", "fallacies", "logical_gaps", "counterarguments", "evidence_requirements", "assumptions", "weaknesses"} {
		assert.NotNil(t, decoded[key], key)
	}

	ps := decoded["premise_strength"].(map[string]interface{})
	_, ok := ps["individual_strengths"]
	assert.False(t, ok)
}

func TestParseReasoningType(t *testing.T) {
	tests := []struct {
		in      string
		want    ReasoningType
		wantErr bool
	}{
		{"deductive", Deductive, false},
		{" Inductive ", Inductive, false},
		{"ABDUCTIVE", Abductive, false},
		{"analogical", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseReasoningType(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseComplexity(t *testing.T) {
	c, err := ParseComplexity("Expert")
	require.NoError(t, err)
	assert.Equal(t, Expert, c)

	_, err = ParseComplexity("trivial")
	assert.Error(t, err)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.3))
	assert.Equal(t, 1.0, Clamp01(1.1))
	assert.Equal(t, 0.42, Clamp01(0.42))
}
