package store

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bitmark-inc/vaccination-api/schema"
)

const (
	DefaultPage  = int64(1)
	DefaultLimit = int64(20)
)

// CitizenReporter - interface to query the citizen vaccination report
type CitizenReporter interface {
	ListCitizenReport(ctx context.Context, q ReportQuery) ([]schema.ReportRow, error)
}

// ReportQuery carries the validated filters, sorting and paging of a report
// request. Nil fields impose no constraint.
type ReportQuery struct {
	HospitalCode *int
	VaccineCode  *int
	Gender       *schema.Gender
	AgeRange     *IntRange
	DateRange    *DateRange
	Search       string
	Sort         *Sort
	Page         int64
	Limit        int64
}

// NewReportQuery returns a query on the first page with the default limit
func NewReportQuery() ReportQuery {
	return ReportQuery{
		Page:  DefaultPage,
		Limit: DefaultLimit,
	}
}

// Skip is the number of rows in front of the requested page. It saturates
// at math.MaxInt64 instead of overflowing.
func (q ReportQuery) Skip() int64 {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt64/q.Limit {
		return math.MaxInt64
	}
	return (q.Page - 1) * q.Limit
}

// SkipOverflows reports whether the rows in front of the page cannot be
// counted in an int64.
func (q ReportQuery) SkipOverflows() bool {
	return q.Page > 1 && q.Limit > 0 && q.Page-1 > math.MaxInt64/q.Limit
}

// Filter assembles the $match predicate. It is evaluated after both joins so
// it can refer to `vaccine.code`, `hospital.name` and the derived fields.
func (q ReportQuery) Filter() bson.M {
	match := bson.M{}

	if q.HospitalCode != nil {
		match["lastHospitalCode"] = *q.HospitalCode
	}

	if q.VaccineCode != nil {
		match["vaccine.code"] = *q.VaccineCode
	}

	if q.Gender != nil {
		switch *q.Gender {
		case schema.GenderMale, schema.GenderFemale:
			match["gender"] = string(*q.Gender)
		default:
			match["gender"] = bson.M{
				"$nin": bson.A{string(schema.GenderMale), string(schema.GenderFemale)},
			}
		}
	}

	if q.AgeRange != nil {
		match["age"] = bson.M{
			"$gte": q.AgeRange.Start,
			"$lte": q.AgeRange.End,
		}
	}

	if q.DateRange != nil {
		match["date"] = bson.M{
			"$gte": q.DateRange.Start,
			"$lte": q.DateRange.End,
		}
	}

	if keyword := strings.TrimSpace(q.Search); keyword != "" {
		prefix := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(keyword), Options: "i"}
		match["$or"] = bson.A{
			bson.M{"fullName": prefix},
			bson.M{"hospital.name": prefix},
			bson.M{"phoneNo": prefix},
		}
	}

	return match
}

// Pipeline returns the aggregation run against the citizen collection.
// The stage slots are fixed; only the position of the sort stage depends on
// whether the sort key exists before projection.
func (q ReportQuery) Pipeline() []bson.M {
	pipeline := make([]bson.M, 0, 15)

	if q.Sort != nil && !q.Sort.afterProjection() {
		pipeline = append(pipeline, aggStageSort(q.Sort.keys()))
	}

	pipeline = append(pipeline,
		aggStageAddField("firstVaccine", exprArrayElemAt("$vaccinations", 0)),
		aggStageAddField("fullName", bson.M{"$concat": bson.A{"$firstName", " ", "$lastName"}}),
		aggStageAddField("date", exprVaccinationDate("firstVaccine.date")),
		aggStageLookup(schema.HospitalCollection, "lastHospitalCode", "hospitalCode", "hospital"),
		aggStageUnwind("hospital"),
		aggStageLookup(schema.VaccineCollection, "firstVaccine.code", "code", "vaccine"),
		aggStageUnwind("vaccine"),
		aggStageMatch(q.Filter()),
		aggStageReportProjection(),
		aggStageUnwind("hospitalName"),
	)

	if q.Sort != nil && q.Sort.afterProjection() {
		pipeline = append(pipeline, aggStageSort(q.Sort.keys()))
	}

	return append(pipeline,
		aggStageSkip(q.Skip()),
		aggStageLimit(q.Limit),
	)
}

// aggStageReportProjection reshapes a joined citizen into a schema.ReportRow
func aggStageReportProjection() bson.M {
	genderBranches := bson.A{}
	for _, g := range []schema.Gender{schema.GenderMale, schema.GenderFemale} {
		genderBranches = append(genderBranches,
			exprCase(bson.M{"$eq": bson.A{"$gender", string(g)}}, string(g.Label())))
	}

	ageBranches := bson.A{}
	for _, b := range schema.AgeBrackets {
		var cond interface{} = bson.M{"$gte": bson.A{"$age", b.Min}}
		if b.Max >= 0 {
			cond = bson.M{"$and": bson.A{cond, bson.M{"$lte": bson.A{"$age", b.Max}}}}
		}
		ageBranches = append(ageBranches, exprCase(cond, string(b.Group)))
	}

	return bson.M{
		"$project": bson.M{
			"fullName":     1,
			"mobileNumber": "$phoneNo",
			"hospitalName": "$hospital.name",
			"hospitalCode": "$lastHospitalCode",
			"gender":       exprSwitch(genderBranches, string(schema.GenderLabelOther)),
			"ageGroup":     exprSwitch(ageBranches, string(schema.AgeGroupChild)),
			"vaccineCode":  "$vaccine.code",
			"vaccineName":  "$vaccine.name",
			"date":         1,
		},
	}
}

var monthAbbreviations = bson.A{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

// exprVaccinationDate parses a date string such as "Mon Jan 05 2021".
// Tokens are separated by a single space: [1] is the month, either a name or
// a number, [2] the day and [3] the year. The result is null when the field
// is not a string, when any part cannot be read or is out of range, and when
// the day does not exist in that month (Feb 31 never rolls into March).
func exprVaccinationDate(field string) bson.M {
	monthToken := bson.M{"$ifNull": bson.A{exprArrayElemAt("$$parts", 1), ""}}
	monthIndex := bson.M{
		"$indexOfArray": bson.A{
			monthAbbreviations,
			bson.M{"$toLower": bson.M{"$substrCP": bson.A{monthToken, 0, 3}}},
		},
	}

	return bson.M{
		"$let": bson.M{
			"vars": bson.M{
				"parts": bson.M{"$split": bson.A{exprStringOrEmpty(specifyField(field)), " "}},
			},
			"in": bson.M{
				"$let": bson.M{
					"vars": bson.M{
						"year": exprToIntOrNull(exprArrayElemAt("$$parts", 3)),
						"day":  exprToIntOrNull(exprArrayElemAt("$$parts", 2)),
						"month": bson.M{
							"$let": bson.M{
								"vars": bson.M{"idx": monthIndex},
								"in": bson.M{"$cond": bson.A{
									bson.M{"$gte": bson.A{"$$idx", 0}},
									bson.M{"$add": bson.A{"$$idx", 1}},
									exprToIntOrNull(monthToken),
								}},
							},
						},
					},
					"in": bson.M{"$cond": bson.A{
						bson.M{"$and": bson.A{
							exprBetween("$$year", 1, 9999),
							exprBetween("$$month", 1, 12),
							exprBetween("$$day", 1, 31),
						}},
						exprExactDate("$$year", "$$month", "$$day"),
						nil,
					}},
				},
			},
		},
	}
}

// exprExactDate builds the date from its parts and drops it when mongo had
// to normalise the month or day, e.g. April 31 into May 1.
func exprExactDate(year, month, day interface{}) bson.M {
	return bson.M{
		"$let": bson.M{
			"vars": bson.M{
				"d": bson.M{"$dateFromParts": bson.M{
					"year":  year,
					"month": month,
					"day":   day,
				}},
			},
			"in": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{bson.M{"$month": "$$d"}, month}},
					bson.M{"$eq": bson.A{bson.M{"$dayOfMonth": "$$d"}, day}},
				}},
				"$$d",
				nil,
			}},
		},
	}
}

// ListCitizenReport runs the report aggregation and decodes the rows
func (m *mongoDB) ListCitizenReport(ctx context.Context, q ReportQuery) ([]schema.ReportRow, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	pipeline := q.Pipeline()
	log.WithField("prefix", mongoLogPrefix).Debugf("citizen report pipeline: %v", pipeline)

	started := time.Now()
	c := m.client.Database(m.database).Collection(schema.CitizenCollection)
	cursor, err := c.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rows := make([]schema.ReportRow, 0)
	for cursor.Next(ctx) {
		var row schema.ReportRow
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	log.WithField("prefix", mongoLogPrefix).Debugf("citizen report: %d rows in %s", len(rows), time.Since(started))

	return rows, nil
}
