package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Job is the normalized posting every producer maps into before it reaches the
// merge engine. Keys the struct does not know about are kept in Extra and written
// back unchanged.
type Job struct {
	JobID               string `json:"jobId,omitempty"`
	ID                  string `json:"id,omitempty"`
	Title               string `json:"title"`
	Company             string `json:"company"`
	Location            string `json:"location"`
	PostedDate          string `json:"posted_date"`
	URL                 string `json:"url,omitempty"`
	URLNextStep         string `json:"url_next_step"`
	Description         string `json:"description,omitempty"`
	BasicQualifications string `json:"basic_qualifications,omitempty"`
	DescriptionShort    string `json:"description_short,omitempty"`
	Source              string `json:"source"`

	Extra map[string]json.RawMessage `json:"-"`
}

// knownFields maps json keys to the struct field they populate.
var knownFields = map[string]func(*Job) *string{
	"jobId":                func(j *Job) *string { return &j.JobID },
	"id":                   func(j *Job) *string { return &j.ID },
	"title":                func(j *Job) *string { return &j.Title },
	"company":              func(j *Job) *string { return &j.Company },
	"location":             func(j *Job) *string { return &j.Location },
	"posted_date":          func(j *Job) *string { return &j.PostedDate },
	"url":                  func(j *Job) *string { return &j.URL },
	"url_next_step":        func(j *Job) *string { return &j.URLNextStep },
	"description":          func(j *Job) *string { return &j.Description },
	"basic_qualifications": func(j *Job) *string { return &j.BasicQualifications },
	"description_short":    func(j *Job) *string { return &j.DescriptionShort },
	"source":               func(j *Job) *string { return &j.Source },
}

// FirstNonEmpty returns the first value that is not blank, in argument order.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// IdentityKey is the merge key for a posting. Priority:
//
//	jobId > id > url > url_next_step > "title-company-location"
//
// The slug fallback can merge unrelated postings that share all three fields.
func (j Job) IdentityKey() string {
	if key := FirstNonEmpty(j.JobID, j.ID, j.URL, j.URLNextStep); key != "" {
		return key
	}
	return fmt.Sprintf("%s-%s-%s", j.Title, j.Company, j.Location)
}

// ExperienceText is the best available free text to scan for experience
// requirements: description, then basic qualifications, then the short description.
func (j Job) ExperienceText() string {
	return FirstNonEmpty(j.Description, j.BasicQualifications, j.DescriptionShort)
}

// Link is the page a reader should open for the posting.
func (j Job) Link() string {
	return FirstNonEmpty(j.URL, j.URLNextStep)
}

// FormatPostedDate renders an absolute time the way producers store posted_date.
func FormatPostedDate(t time.Time) string {
	return t.Format(time.RFC3339)
}

// MarshalJSON writes known fields in struct order. When pass-through fields are
// present the object is written with sorted keys instead.
func (j Job) MarshalJSON() ([]byte, error) {
	type plain Job
	base, err := json.Marshal(plain(j))
	if err != nil || len(j.Extra) == 0 {
		return base, err
	}

	fields := make(map[string]json.RawMessage, len(j.Extra)+len(knownFields))
	var known map[string]json.RawMessage
	if err := json.Unmarshal(base, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		fields[k] = v
	}
	for k, v := range j.Extra {
		// A known key in Extra holds a non-scalar value kept from decoding; it
		// is written back unless the field has since been set.
		if field, ok := knownFields[k]; ok && *field(&j) != "" {
			continue
		}
		fields[k] = v
	}
	return json.Marshal(fields)
}

// UnmarshalJSON accepts strings, numbers and null for every known field so that
// records written by other tools (numeric ids, epoch dates) still load. Any other
// value of a known key is kept in Extra, leaving the field empty.
func (j *Job) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*j = Job{}
	for key, value := range raw {
		field, ok := knownFields[key]
		if ok && isScalar(value) {
			*field(j) = scalarText(value)
			continue
		}
		if ok && isNull(value) {
			continue
		}
		if j.Extra == nil {
			j.Extra = make(map[string]json.RawMessage)
		}
		j.Extra[key] = value
	}
	return nil
}

func isNull(value json.RawMessage) bool {
	return string(bytes.TrimSpace(value)) == "null"
}

// isScalar reports whether value is a JSON string or number.
func isScalar(value json.RawMessage) bool {
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return false
	}
	switch value[0] {
	case '"', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	}
	return false
}

// scalarText returns the text of a JSON string or number. Anything else is "".
func scalarText(value json.RawMessage) string {
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return ""
	}
	switch value[0] {
	case '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(value, &n); err != nil {
			return ""
		}
		return n.String()
	default:
		return ""
	}
}
