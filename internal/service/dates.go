package service

import (
	"strings"
	"time"

	"github.com/zidnyyasrah/point-of-sale/internal/store"
)

const dateLayout = "2006-01-02"

// dateBounds turns calendar dates in the store location into a half-open
// instant range [from, to). A lone date_from selects that single day.
func (s *Service) dateBounds(dateFrom string, dateTo string) (*time.Time, *time.Time, error) {
	dateFrom = strings.TrimSpace(dateFrom)
	dateTo = strings.TrimSpace(dateTo)
	if dateFrom == "" && dateTo == "" {
		return nil, nil, nil
	}

	verr := &store.ValidationError{}
	if dateFrom == "" {
		verr.Add("date_to", "requires date_from")
		return nil, nil, verr
	}

	from, err := time.ParseInLocation(dateLayout, dateFrom, s.location)
	if err != nil {
		verr.Add("date_from", "must be a date in YYYY-MM-DD form")
	}
	last := from
	if dateTo != "" {
		last, err = time.ParseInLocation(dateLayout, dateTo, s.location)
		if err != nil {
			verr.Add("date_to", "must be a date in YYYY-MM-DD form")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, nil, err
	}
	if last.Before(from) {
		verr.Add("date_to", "must not be before date_from")
		return nil, nil, verr
	}

	// Next local midnight after the last day.
	to := time.Date(last.Year(), last.Month(), last.Day()+1, 0, 0, 0, 0, s.location)
	return &from, &to, nil
}
