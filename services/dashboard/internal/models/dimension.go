package models

// Dimension is a categorical field jobs can be filtered and counted by.
type Dimension string

const (
	DimensionType       Dimension = "type"
	DimensionLocation   Dimension = "location"
	DimensionExperience Dimension = "experience"
)

var Dimensions = []Dimension{DimensionType, DimensionLocation, DimensionExperience}

// Options returns the allowed values of the dimension, or nil for an
// unknown one.
func (d Dimension) Options() []string {
	switch d {
	case DimensionType:
		return EmploymentTypes
	case DimensionLocation:
		return Locations
	case DimensionExperience:
		return ExperienceLevels
	}
	return nil
}

func (d Dimension) Valid() bool {
	return d.Options() != nil
}

// Value reads the job's field for the dimension.
func (d Dimension) Value(j Job) string {
	switch d {
	case DimensionType:
		return j.EmploymentType
	case DimensionLocation:
		return j.Location
	case DimensionExperience:
		return j.Experience
	}
	return ""
}

func ParseDimension(s string) (Dimension, bool) {
	d := Dimension(s)
	return d, d.Valid()
}
