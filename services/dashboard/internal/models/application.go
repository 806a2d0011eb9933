package models

import (
	"encoding/json"
	"time"
)

type ApplicationRecord struct {
	JobID     string    `json:"jobId"`
	AppliedAt time.Time `json:"date"`
}

type ApplicationList []ApplicationRecord

func (l ApplicationList) MarshalBinary() ([]byte, error) {
	if l == nil {
		l = ApplicationList{}
	}
	return json.Marshal([]ApplicationRecord(l))
}

func (l *ApplicationList) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, (*[]ApplicationRecord)(l))
}

// Has reports whether a record for jobID exists.
func (l ApplicationList) Has(jobID string) bool {
	for _, r := range l {
		if r.JobID == jobID {
			return true
		}
	}
	return false
}
