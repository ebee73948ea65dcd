package schema

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportRow is one line of the citizen vaccination report
type ReportRow struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	FullName     string             `json:"fullName" bson:"fullName"`
	MobileNumber string             `json:"mobileNumber" bson:"mobileNumber"`
	HospitalName string             `json:"hospitalName" bson:"hospitalName"`
	HospitalCode int                `json:"hospitalCode" bson:"hospitalCode"`
	Gender       GenderLabel        `json:"gender" bson:"gender"`
	AgeGroup     AgeGroup           `json:"ageGroup" bson:"ageGroup"`
	VaccineCode  int                `json:"vaccineCode" bson:"vaccineCode"`
	VaccineName  string             `json:"vaccineName" bson:"vaccineName"`
	Date         *time.Time         `json:"date" bson:"date"`
}

// Gender is the single letter code stored on a citizen
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	// GenderOther stands for every code which is neither M nor F
	GenderOther Gender = "O"
)

// GenderLabel is the human readable gender shown in reports
type GenderLabel string

const (
	GenderLabelMale   GenderLabel = "Male"
	GenderLabelFemale GenderLabel = "Female"
	GenderLabelOther  GenderLabel = "Other"
)

var genderFromName = map[string]Gender{
	"male":   GenderMale,
	"female": GenderFemale,
	"other":  GenderOther,
}

// ParseGender maps a case-insensitive gender name to its code.
// The second return value is false for unrecognized names.
func ParseGender(name string) (Gender, bool) {
	g, ok := genderFromName[strings.ToLower(strings.TrimSpace(name))]
	return g, ok
}

// Label returns the report label of a gender code
func (g Gender) Label() GenderLabel {
	switch g {
	case GenderMale:
		return GenderLabelMale
	case GenderFemale:
		return GenderLabelFemale
	default:
		return GenderLabelOther
	}
}

// AgeGroup - derived age bracket
type AgeGroup string

const (
	AgeGroupChild      AgeGroup = "Child"
	AgeGroupAdult      AgeGroup = "Adult"
	AgeGroupMiddleAged AgeGroup = "Middle-aged"
	AgeGroupSenior     AgeGroup = "Senior citizen"
)

// AgeBracket is an inclusive age interval. Max < 0 means unbounded.
type AgeBracket struct {
	Group AgeGroup
	Min   int
	Max   int
}

// AgeBrackets lists the brackets in evaluation order. Ages matching none of
// them belong to AgeGroupChild.
var AgeBrackets = []AgeBracket{
	{AgeGroupAdult, 18, 45},
	{AgeGroupMiddleAged, 46, 60},
	{AgeGroupSenior, 61, -1},
}

// AgeGroupOf returns the age group of an age
func AgeGroupOf(age int) AgeGroup {
	for _, b := range AgeBrackets {
		if age >= b.Min && (b.Max < 0 || age <= b.Max) {
			return b.Group
		}
	}
	return AgeGroupChild
}
