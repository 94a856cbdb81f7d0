package filter

// Keywords are the phrase sets the title classifier compiles. Phrases are matched
// case-insensitively as whole words; a space inside a phrase also matches no space
// ("bigdata", "big data").
type Keywords struct {
	Include   []string `yaml:"include"`
	Exclude   []string `yaml:"exclude"`
	Seniority []string `yaml:"seniority"`
}

const DefaultMaxExperienceYears = 6

// DefaultKeywords returns the data-engineering role sets.
func DefaultKeywords() Keywords {
	return Keywords{
		Include: []string{
			"data engineer", "data engineering", "analytics engineer", "etl",
			"data platform", "data pipeline", "data warehouse", "big data",
		},
		Exclude: []string{
			"site reliability", "sre", "security", "network", "frontend", "front-end",
			"full stack", "mobile", "ios", "android", "devops", "qa", "test",
			"product manager", "program manager", "scrum",
		},
		Seniority: []string{"director", "manager", "vp", "head"},
	}
}

// Merge fills empty sets from fallback.
func (k Keywords) Merge(fallback Keywords) Keywords {
	if len(k.Include) == 0 {
		k.Include = fallback.Include
	}
	if len(k.Exclude) == 0 {
		k.Exclude = fallback.Exclude
	}
	if len(k.Seniority) == 0 {
		k.Seniority = fallback.Seniority
	}
	return k
}
