package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// JobInput carries the fields of the job form. Tags are comma separated;
// requirements and benefits take one item per line.
type JobInput struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Company        string     `json:"company"`
	Location       string     `json:"location"`
	EmploymentType string     `json:"employment_type"`
	Experience     string     `json:"experience"`
	SalaryMin      NumberText `json:"salary_min"`
	SalaryMax      NumberText `json:"salary_max"`
	Tags           string     `json:"tags"`
	Description    string     `json:"description"`
	Requirements   string     `json:"requirements"`
	Benefits       string     `json:"benefits"`
}

// NumberText is a form number. It decodes from a JSON number or string and
// is validated when the job is built.
type NumberText string

func (n *NumberText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumberText(s)
	default:
		*n = NumberText(data)
	}
	return nil
}

// Float parses the value. Blank is zero; thousands separators are allowed.
func (n NumberText) Float() (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(string(n)), ",", "")
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", string(n))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", string(n))
	}
	return f, nil
}
