package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTargetTitle(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected bool
	}{
		{name: "plain match", title: "Data Engineer", expected: true},
		{name: "seniority prefix not excluded", title: "Senior Data Engineer", expected: true},
		{name: "manager excluded", title: "Data Engineering Manager", expected: false},
		{name: "adjacent role", title: "Site Reliability Engineer", expected: false},
		{name: "empty", title: "", expected: false},
		{name: "blank", title: "   ", expected: false},
		{name: "case insensitive", title: "DATA ENGINEER II", expected: true},
		{name: "analytics engineer", title: "Analytics Engineer", expected: true},
		{name: "etl whole word", title: "ETL Developer", expected: true},
		{name: "etl inside word", title: "MetLife Analyst", expected: false},
		{name: "big data without space", title: "Bigdata Developer", expected: true},
		{name: "network excluded", title: "Network Engineer", expected: false},
		{name: "sre excluded", title: "SRE - Data Platform", expected: false},
		{name: "full stack excluded", title: "Full Stack Data Platform Engineer", expected: false},
		{name: "director excluded", title: "Director, Data Platform", expected: false},
		{name: "vp excluded", title: "VP Data Engineering", expected: false},
		{name: "head excluded", title: "Head of Data Engineering", expected: false},
		{name: "qa excluded", title: "QA Data Pipeline Engineer", expected: false},
		{name: "unrelated", title: "Software Engineer", expected: false},
		{name: "diacritics", title: "Data Engineer – Équipe Données", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTargetTitle(tt.title))
		})
	}
}

func TestHasExcessiveExperience(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "range below threshold", text: "3-5 years experience", expected: false},
		{name: "plus years", text: "10+ years", expected: true},
		{name: "exact threshold", text: "6 years of experience", expected: true},
		{name: "below threshold", text: "5 years of experience", expected: false},
		{name: "no pattern", text: "Strong SQL and Python", expected: false},
		{name: "empty", text: "", expected: false},
		{name: "uppercase", text: "8 YEARS in data", expected: true},
		{name: "no space", text: "7years", expected: true},
		{name: "any match counts", text: "2 years SQL, 9+ years overall", expected: true},
		{name: "historical phrase false positive", text: "founded 10 years ago", expected: true},
		{name: "overflowing number", text: strings.Repeat("9", 40) + " years", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HasExcessiveExperience(tt.text))
		})
	}
}

func TestNewClassifier_CustomKeywords(t *testing.T) {
	c, err := NewClassifier(Keywords{
		Include:   []string{"machine learning engineer"},
		Exclude:   []string{"intern"},
		Seniority: nil,
	}, 3)
	require.NoError(t, err)

	assert.True(t, c.IsTargetTitle("Machine Learning Engineer"))
	assert.True(t, c.IsTargetTitle("Machine Learning Engineer Manager"))
	assert.False(t, c.IsTargetTitle("Machine Learning Engineer Intern"))
	assert.False(t, c.IsTargetTitle("Data Engineer"))

	assert.True(t, c.HasExcessiveExperience("3 years"))
	assert.False(t, c.HasExcessiveExperience("2 years"))
	assert.Equal(t, 3, c.MaxExperienceYears())
}

func TestNewClassifier_DefaultThreshold(t *testing.T) {
	c, err := NewClassifier(DefaultKeywords(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxExperienceYears, c.MaxExperienceYears())
}

func TestNewClassifier_EmptyIncludeMatchesNothing(t *testing.T) {
	c, err := NewClassifier(Keywords{}, 6)
	require.NoError(t, err)
	assert.False(t, c.IsTargetTitle("Data Engineer"))
}

func TestKeywords_Merge(t *testing.T) {
	merged := Keywords{Include: []string{"etl"}}.Merge(DefaultKeywords())
	assert.Equal(t, []string{"etl"}, merged.Include)
	assert.Equal(t, DefaultKeywords().Exclude, merged.Exclude)
	assert.Equal(t, DefaultKeywords().Seniority, merged.Seniority)
}
