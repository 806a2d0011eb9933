package models

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	// RemoteIDPrefix marks jobs sourced from the remote API.
	RemoteIDPrefix = "remote-"
	// LocalIDPrefix is used for ids generated for locally authored jobs.
	LocalIDPrefix = "local-"
)

var (
	EmploymentTypes  = []string{"Full Time", "Part Time", "Contract", "Remote"}
	Locations        = []string{"San Francisco", "New York", "London", "Berlin"}
	ExperienceLevels = []string{"Entry", "Mid", "Senior"}
)

const DefaultExperience = "Mid"

type Job struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Location       string    `json:"location"`
	EmploymentType string    `json:"employment_type"`
	Experience     string    `json:"experience"`
	SalaryMin      float64   `json:"salary_min"`
	SalaryMax      float64   `json:"salary_max"`
	Tags           []string  `json:"tags"`
	Description    string    `json:"description"`
	Requirements   []string  `json:"requirements"`
	Benefits       []string  `json:"benefits"`
	Date           time.Time `json:"date"`
}

func (j Job) IsRemote() bool {
	return IsRemoteID(j.ID)
}

func IsRemoteID(id string) bool {
	return strings.HasPrefix(id, RemoteIDPrefix)
}

// JobList is the persisted form of the local jobs collection.
type JobList []Job

func (l JobList) MarshalBinary() ([]byte, error) {
	if l == nil {
		l = JobList{}
	}
	return json.Marshal([]Job(l))
}

func (l *JobList) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, (*[]Job)(l))
}

// RawJob is an untrusted record from the remote source, keyed by whatever
// field names the source happens to use.
type RawJob map[string]any
