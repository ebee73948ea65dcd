package store

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrInvalidAgeRange  = errors.New("invalid age range")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrInvalidSort      = errors.New("invalid sort")
)

const (
	ageRangeSeparator  = "-"
	dateRangeSeparator = " - "
	dateRangeLayout    = "2006-01-02"
	sortSeparator      = ":"
)

// IntRange - inclusive integer interval
type IntRange struct {
	Start int
	End   int
}

// ParseAgeRange reads an inclusive "start-end" age range, e.g. "18-45"
func ParseAgeRange(s string) (*IntRange, error) {
	parts := strings.Split(s, ageRangeSeparator)
	if len(parts) != 2 {
		return nil, ErrInvalidAgeRange
	}

	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, ErrInvalidAgeRange
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, ErrInvalidAgeRange
	}

	if start > end {
		return nil, ErrInvalidAgeRange
	}

	return &IntRange{Start: start, End: end}, nil
}

// DateRange - inclusive interval of days, both ends at midnight UTC
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange reads "YYYY-MM-DD - YYYY-MM-DD"
func ParseDateRange(s string) (*DateRange, error) {
	parts := strings.Split(s, dateRangeSeparator)
	if len(parts) != 2 {
		return nil, ErrInvalidDateRange
	}

	start, err := time.ParseInLocation(dateRangeLayout, strings.TrimSpace(parts[0]), time.UTC)
	if err != nil {
		return nil, ErrInvalidDateRange
	}
	end, err := time.ParseInLocation(dateRangeLayout, strings.TrimSpace(parts[1]), time.UTC)
	if err != nil {
		return nil, ErrInvalidDateRange
	}

	if start.After(end) {
		return nil, ErrInvalidDateRange
	}

	return &DateRange{Start: start, End: end}, nil
}

// SortOrder - direction of a sort, in mongo notation
type SortOrder int

const (
	SortDescending SortOrder = -1
	SortAscending  SortOrder = 1
)

// ParseSortOrder returns ascending for "asc" and descending for anything else
func ParseSortOrder(s string) SortOrder {
	if strings.TrimSpace(s) == "asc" {
		return SortAscending
	}
	return SortDescending
}

type sortField struct {
	keys            []string
	afterProjection bool
}

// sortFields maps every sortable name to the document keys it sorts on.
// Keys which exist on the raw citizen are sorted before any other stage,
// the rest only exist once the row is projected.
// Either way the sort precedes $skip and $limit, so pages share one global order.
// fullName orders by the (firstName, lastName) pair and gender by the raw
// code, so "F" < "M" < other codes rather than by the projected label.
var sortFields = map[string]sortField{
	"date":         {keys: []string{"date"}, afterProjection: true},
	"hospitalName": {keys: []string{"hospitalName"}, afterProjection: true},
	"vaccineCode":  {keys: []string{"vaccineCode"}, afterProjection: true},
	"vaccineName":  {keys: []string{"vaccineName"}, afterProjection: true},

	"fullName":     {keys: []string{"firstName", "lastName"}},
	"mobileNumber": {keys: []string{"phoneNo"}},
	"hospitalCode": {keys: []string{"lastHospitalCode"}},
	"ageGroup":     {keys: []string{"age"}},
	"gender":       {keys: []string{"gender"}},

	"firstName":        {keys: []string{"firstName"}},
	"lastName":         {keys: []string{"lastName"}},
	"age":              {keys: []string{"age"}},
	"phoneNo":          {keys: []string{"phoneNo"}},
	"lastHospitalCode": {keys: []string{"lastHospitalCode"}},
}

// Sort - sort request on one report field
type Sort struct {
	Field string
	Order SortOrder
}

// ParseSort reads "field:order", order "asc" ascends and any other value
// (or none) descends
func ParseSort(s string) (*Sort, error) {
	parts := strings.Split(s, sortSeparator)
	if len(parts) > 2 {
		return nil, ErrInvalidSort
	}

	field := strings.TrimSpace(parts[0])
	if _, ok := sortFields[field]; !ok {
		return nil, ErrInvalidSort
	}

	order := SortDescending
	if len(parts) == 2 {
		order = ParseSortOrder(parts[1])
	}

	return &Sort{Field: field, Order: order}, nil
}

func (s Sort) afterProjection() bool {
	return sortFields[s.Field].afterProjection
}

// keys returns the sort document. `_id` is appended as a tiebreaker so that
// equal keys keep a stable order between pages.
func (s Sort) keys() bson.D {
	keys := bson.D{}
	for _, k := range sortFields[s.Field].keys {
		keys = append(keys, bson.E{Key: k, Value: int(s.Order)})
	}
	return append(keys, bson.E{Key: "_id", Value: 1})
}
