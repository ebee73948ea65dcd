package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/bitmark-inc/vaccination-api/schema"
	"github.com/bitmark-inc/vaccination-api/store"
)

type citizenQueryParams struct {
	HospitalCode string `form:"hospitalCode" binding:"omitempty,number"`
	VaccineCode  string `form:"vaccineCode" binding:"omitempty,number"`
	Gender       string `form:"gender"`
	AgeRange     string `form:"ageRange"`
	DateRange    string `form:"dateRange"`
	Search       string `form:"search"`
	Page         string `form:"page" binding:"omitempty,number"`
	Limit        string `form:"limit" binding:"omitempty,number"`
	Sort         string `form:"sort"`
}

var (
	errNonPositive  = errors.New("must be a positive number")
	errPageOverflow = errors.New("page is out of range for the limit")
)

// reportQuery validates the query parameters and converts them into
// a store.ReportQuery. Absent parameters impose no constraint.
func (p citizenQueryParams) reportQuery() (store.ReportQuery, error) {
	q := store.NewReportQuery()

	if p.HospitalCode != "" {
		code, err := strconv.Atoi(p.HospitalCode)
		if err != nil {
			return q, fmt.Errorf("hospitalCode: %w", err)
		}
		q.HospitalCode = &code
	}

	if p.VaccineCode != "" {
		code, err := strconv.Atoi(p.VaccineCode)
		if err != nil {
			return q, fmt.Errorf("vaccineCode: %w", err)
		}
		q.VaccineCode = &code
	}

	if p.Gender != "" {
		if g, ok := schema.ParseGender(p.Gender); ok {
			q.Gender = &g
		} else {
			log.Debugf("unknown gender filter ignored: %s", p.Gender)
		}
	}

	if p.AgeRange != "" {
		r, err := store.ParseAgeRange(p.AgeRange)
		if err != nil {
			return q, err
		}
		q.AgeRange = r
	}

	if p.DateRange != "" {
		r, err := store.ParseDateRange(p.DateRange)
		if err != nil {
			return q, err
		}
		q.DateRange = r
	}

	q.Search = p.Search

	if p.Page != "" {
		page, err := parsePositive(p.Page)
		if err != nil {
			return q, fmt.Errorf("page: %w", err)
		}
		q.Page = page
	}

	if p.Limit != "" {
		limit, err := parsePositive(p.Limit)
		if err != nil {
			return q, fmt.Errorf("limit: %w", err)
		}
		q.Limit = limit
	}

	if q.SkipOverflows() {
		return q, errPageOverflow
	}

	if p.Sort != "" {
		sort, err := store.ParseSort(p.Sort)
		if err != nil {
			return q, err
		}
		q.Sort = sort
	}

	return q, nil
}

func parsePositive(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errNonPositive
	}
	return n, nil
}

func queryErrorResponse(err error) ErrorResponse {
	switch {
	case errors.Is(err, store.ErrInvalidAgeRange):
		return errorInvalidAgeRange
	case errors.Is(err, store.ErrInvalidDateRange):
		return errorInvalidDateRange
	case errors.Is(err, store.ErrInvalidSort):
		return errorInvalidSort
	default:
		return errorInvalidParameters
	}
}

func (s *Server) listCitizens(c *gin.Context) {
	scope := s.metrics.SubScope("citizen_report")
	scope.Counter("requests").Inc(1)

	var params citizenQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		scope.Counter("invalid").Inc(1)
		abortWithEncoding(c, http.StatusBadRequest, errorCannotParseRequest, err)
		return
	}

	q, err := params.reportQuery()
	if err != nil {
		scope.Counter("invalid").Inc(1)
		abortWithEncoding(c, http.StatusBadRequest, queryErrorResponse(err), err)
		return
	}

	sw := scope.Timer("latency").Start()
	rows, err := s.mongoStore.ListCitizenReport(c.Request.Context(), q)
	sw.Stop()
	if err != nil {
		scope.Counter("errors").Inc(1)
		sentry.CaptureException(err)
		abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer, err)
		return
	}

	scope.Gauge("rows").Update(float64(len(rows)))

	c.JSON(http.StatusOK, gin.H{
		"citizens":     rows,
		"pageNumber":   q.Page,
		"perPageLimit": q.Limit,
	})
}
