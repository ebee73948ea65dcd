package store

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bitmark-inc/vaccination-api/schema"
)

func stageNames(pipeline []bson.M) []string {
	names := make([]string, 0, len(pipeline))
	for _, stage := range pipeline {
		for k := range stage {
			names = append(names, k)
		}
	}
	return names
}

func intPtr(i int) *int {
	return &i
}

func genderPtr(g schema.Gender) *schema.Gender {
	return &g
}

type skipTestCase struct {
	page     int64
	limit    int64
	expected int64
}

func TestReportQuerySkip(t *testing.T) {
	cases := []skipTestCase{
		{1, 20, 0},
		{2, 20, 20},
		{3, 10, 20},
		{0, 20, 0},
		{-1, 20, 0},
		{5, 1, 4},
		{922337203685477581, 20, math.MaxInt64},
		{math.MaxInt64, math.MaxInt64, math.MaxInt64},
		{2, 0, 0},
	}
	for _, c := range cases {
		q := ReportQuery{Page: c.page, Limit: c.limit}
		assert.Equal(t, c.expected, q.Skip(), "page %d limit %d", c.page, c.limit)
		assert.True(t, q.Skip() >= 0)
	}
}

func TestReportQuerySkipOverflows(t *testing.T) {
	assert.False(t, ReportQuery{Page: 1, Limit: math.MaxInt64}.SkipOverflows())
	assert.False(t, ReportQuery{Page: 3, Limit: 20}.SkipOverflows())
	assert.True(t, ReportQuery{Page: 922337203685477581, Limit: 20}.SkipOverflows())

	q := ReportQuery{Page: 922337203685477581, Limit: 20}
	assert.Equal(t, bson.M{"$skip": int64(math.MaxInt64)}, q.Pipeline()[10])
}

func TestNewReportQuery(t *testing.T) {
	q := NewReportQuery()
	assert.Equal(t, DefaultPage, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, int64(0), q.Skip())
	assert.Equal(t, bson.M{}, q.Filter())
}

func TestReportQueryFilter(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC)

	q := NewReportQuery()
	q.HospitalCode = intPtr(1)
	q.VaccineCode = intPtr(2)
	q.Gender = genderPtr(schema.GenderMale)
	q.AgeRange = &IntRange{Start: 18, End: 45}
	q.DateRange = &DateRange{Start: start, End: end}

	assert.Equal(t, bson.M{
		"lastHospitalCode": 1,
		"vaccine.code":     2,
		"gender":           "M",
		"age":              bson.M{"$gte": 18, "$lte": 45},
		"date":             bson.M{"$gte": start, "$lte": end},
	}, q.Filter())
}

func TestReportQueryFilterGenderOther(t *testing.T) {
	q := NewReportQuery()
	q.Gender = genderPtr(schema.GenderOther)

	assert.Equal(t, bson.M{
		"gender": bson.M{"$nin": bson.A{"M", "F"}},
	}, q.Filter())
}

func TestReportQueryFilterSearch(t *testing.T) {
	q := NewReportQuery()
	q.Search = "  Jane "

	prefix := primitive.Regex{Pattern: "^Jane", Options: "i"}
	assert.Equal(t, bson.M{
		"$or": bson.A{
			bson.M{"fullName": prefix},
			bson.M{"hospital.name": prefix},
			bson.M{"phoneNo": prefix},
		},
	}, q.Filter())

	q.Search = "555+1 (a)"
	or := q.Filter()["$or"].(bson.A)
	assert.Equal(t, primitive.Regex{Pattern: `^555\+1 \(a\)`, Options: "i"}, or[0].(bson.M)["fullName"])

	q.Search = "   "
	assert.Equal(t, bson.M{}, q.Filter())
}

func TestReportPipelineWithoutSort(t *testing.T) {
	q := NewReportQuery()
	q.Page = 3
	q.Limit = 10

	pipeline := q.Pipeline()
	assert.Equal(t, []string{
		"$addFields", "$addFields", "$addFields",
		"$lookup", "$unwind",
		"$lookup", "$unwind",
		"$match", "$project", "$unwind",
		"$skip", "$limit",
	}, stageNames(pipeline))

	assert.Equal(t, aggStageAddField("firstVaccine", bson.M{"$arrayElemAt": bson.A{"$vaccinations", 0}}), pipeline[0])
	assert.Equal(t, aggStageLookup("hospital", "lastHospitalCode", "hospitalCode", "hospital"), pipeline[3])
	assert.Equal(t, aggStageLookup("vaccinationsData", "firstVaccine.code", "code", "vaccine"), pipeline[5])
	assert.Equal(t, bson.M{"$match": bson.M{}}, pipeline[7])
	assert.Equal(t, bson.M{"$skip": int64(20)}, pipeline[10])
	assert.Equal(t, bson.M{"$limit": int64(10)}, pipeline[11])
}

func TestReportPipelineSortBeforeProjection(t *testing.T) {
	q := NewReportQuery()
	q.Sort = &Sort{Field: "age", Order: SortAscending}

	pipeline := q.Pipeline()
	assert.Len(t, pipeline, 13)
	assert.Equal(t, bson.M{"$sort": bson.D{{Key: "age", Value: 1}, {Key: "_id", Value: 1}}}, pipeline[0])
	assert.Equal(t, "$addFields", stageNames(pipeline)[1])
	assert.Equal(t, []string{"$skip", "$limit"}, stageNames(pipeline)[11:])
}

func TestReportPipelineSortAfterProjection(t *testing.T) {
	q := NewReportQuery()
	q.Sort = &Sort{Field: "date", Order: SortAscending}

	names := stageNames(q.Pipeline())
	assert.Len(t, names, 13)
	assert.Equal(t, "$addFields", names[0])
	assert.Equal(t, []string{"$project", "$unwind", "$sort", "$skip", "$limit"}, names[8:])
}

func TestReportProjection(t *testing.T) {
	project := aggStageReportProjection()["$project"].(bson.M)

	assert.Equal(t, 1, project["fullName"])
	assert.Equal(t, "$phoneNo", project["mobileNumber"])
	assert.Equal(t, "$hospital.name", project["hospitalName"])
	assert.Equal(t, "$lastHospitalCode", project["hospitalCode"])
	assert.Equal(t, "$vaccine.code", project["vaccineCode"])
	assert.Equal(t, "$vaccine.name", project["vaccineName"])
	assert.Equal(t, 1, project["date"])

	gender := project["gender"].(bson.M)["$switch"].(bson.M)
	assert.Equal(t, "Other", gender["default"])
	assert.Equal(t, bson.A{
		bson.M{"case": bson.M{"$eq": bson.A{"$gender", "M"}}, "then": "Male"},
		bson.M{"case": bson.M{"$eq": bson.A{"$gender", "F"}}, "then": "Female"},
	}, gender["branches"])

	ageGroup := project["ageGroup"].(bson.M)["$switch"].(bson.M)
	assert.Equal(t, "Child", ageGroup["default"])
	assert.Equal(t, bson.A{
		bson.M{"case": bson.M{"$and": bson.A{
			bson.M{"$gte": bson.A{"$age", 18}},
			bson.M{"$lte": bson.A{"$age", 45}},
		}}, "then": "Adult"},
		bson.M{"case": bson.M{"$and": bson.A{
			bson.M{"$gte": bson.A{"$age", 46}},
			bson.M{"$lte": bson.A{"$age", 60}},
		}}, "then": "Middle-aged"},
		bson.M{"case": bson.M{"$gte": bson.A{"$age", 61}}, "then": "Senior citizen"},
	}, ageGroup["branches"])
}

func TestExprStringOrEmpty(t *testing.T) {
	assert.Equal(t, bson.M{"$cond": bson.A{
		bson.M{"$eq": bson.A{bson.M{"$type": "$firstVaccine.date"}, "string"}},
		"$firstVaccine.date",
		"",
	}}, exprStringOrEmpty("$firstVaccine.date"))
}

func TestExprBetween(t *testing.T) {
	assert.Equal(t, bson.M{"$and": bson.A{
		bson.M{"$ne": bson.A{"$$month", nil}},
		bson.M{"$gte": bson.A{"$$month", 1}},
		bson.M{"$lte": bson.A{"$$month", 12}},
	}}, exprBetween("$$month", 1, 12))
}

func TestVaccinationDateBuildsOnlyValidParts(t *testing.T) {
	expr := exprVaccinationDate("firstVaccine.date")["$let"].(bson.M)

	parts := expr["vars"].(bson.M)["parts"].(bson.M)["$split"].(bson.A)
	assert.Equal(t, exprStringOrEmpty("$firstVaccine.date"), parts[0])
	assert.Equal(t, " ", parts[1])

	cond := expr["in"].(bson.M)["$let"].(bson.M)["in"].(bson.M)["$cond"].(bson.A)
	assert.Equal(t, bson.M{"$and": bson.A{
		exprBetween("$$year", 1, 9999),
		exprBetween("$$month", 1, 12),
		exprBetween("$$day", 1, 31),
	}}, cond[0])
	assert.Equal(t, exprExactDate("$$year", "$$month", "$$day"), cond[1])
	assert.Nil(t, cond[2])
}

func TestExactDateRejectsNormalisedParts(t *testing.T) {
	expr := exprExactDate("$$year", "$$month", "$$day")["$let"].(bson.M)

	assert.Equal(t, bson.M{"$dateFromParts": bson.M{
		"year":  "$$year",
		"month": "$$month",
		"day":   "$$day",
	}}, expr["vars"].(bson.M)["d"])

	cond := expr["in"].(bson.M)["$cond"].(bson.A)
	assert.Equal(t, bson.M{"$and": bson.A{
		bson.M{"$eq": bson.A{bson.M{"$month": "$$d"}, "$$month"}},
		bson.M{"$eq": bson.A{bson.M{"$dayOfMonth": "$$d"}, "$$day"}},
	}}, cond[0])
	assert.Equal(t, "$$d", cond[1])
	assert.Nil(t, cond[2])
}
