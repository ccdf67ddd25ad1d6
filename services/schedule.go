package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/phonginreallife/sentinel/db"
	"github.com/phonginreallife/sentinel/internal/scheduler"
)

const eitherFilterDetail = "expected either 'dataset_id' or 'datasource_id'"

// Forwarder relays a request to the scheduler API.
type Forwarder interface {
	Forward(ctx context.Context, method, suffix string, query url.Values, inbound http.Header, body []byte) (*scheduler.Response, error)
}

// ScheduleService proxies schedule requests. Apart from the filter and
// body checks below, upstream replies are passed through untouched.
type ScheduleService struct {
	Upstream Forwarder
}

func NewScheduleService(upstream Forwarder) *ScheduleService {
	return &ScheduleService{Upstream: upstream}
}

func (s *ScheduleService) ListSchedules(ctx context.Context, filter db.ScheduleFilter, headers http.Header) (*scheduler.Response, error) {
	if filter.DatasetID != "" && filter.DatasourceID != "" {
		return nil, badRequest(eitherFilterDetail)
	}
	return s.forward(ctx, http.MethodGet, "", filterQuery(filter), headers, nil)
}

func (s *ScheduleService) CreateSchedule(ctx context.Context, datasetID string, headers http.Header, body []byte) (*scheduler.Response, error) {
	if datasetID == "" {
		return nil, badRequest("'dataset_id' is required")
	}
	if err := checkJSON(body); err != nil {
		return nil, err
	}
	return s.forward(ctx, http.MethodPost, "", url.Values{"dataset_id": {datasetID}}, headers, body)
}

func (s *ScheduleService) GetSchedule(ctx context.Context, id string, headers http.Header) (*scheduler.Response, error) {
	return s.forward(ctx, http.MethodGet, "/"+url.PathEscape(id), nil, headers, nil)
}

func (s *ScheduleService) UpdateSchedule(ctx context.Context, id string, headers http.Header, body []byte) (*scheduler.Response, error) {
	if err := checkJSON(body); err != nil {
		return nil, err
	}
	return s.forward(ctx, http.MethodPut, "/"+url.PathEscape(id), nil, headers, body)
}

func (s *ScheduleService) DeleteSchedule(ctx context.Context, id string, headers http.Header) (*scheduler.Response, error) {
	return s.forward(ctx, http.MethodDelete, "/"+url.PathEscape(id), nil, headers, nil)
}

// DeleteSchedules deletes every schedule of exactly one dataset or datasource.
func (s *ScheduleService) DeleteSchedules(ctx context.Context, filter db.ScheduleFilter, headers http.Header) (*scheduler.Response, error) {
	if (filter.DatasetID == "") == (filter.DatasourceID == "") {
		return nil, badRequest(eitherFilterDetail)
	}
	return s.forward(ctx, http.MethodDelete, "", filterQuery(filter), headers, nil)
}

func (s *ScheduleService) NextRunTimes(ctx context.Context, headers http.Header, body []byte) (*scheduler.Response, error) {
	if err := checkJSON(body); err != nil {
		return nil, err
	}
	return s.forward(ctx, http.MethodPost, "/next-run-times", nil, headers, body)
}

// JSONSchema returns the scheduler's own schedule schema.
func (s *ScheduleService) JSONSchema(ctx context.Context, headers http.Header) (*scheduler.Response, error) {
	return s.forward(ctx, http.MethodGet, "/json-schema", nil, headers, nil)
}

func (s *ScheduleService) forward(ctx context.Context, method, suffix string, query url.Values, headers http.Header, body []byte) (*scheduler.Response, error) {
	resp, err := s.Upstream.Forward(ctx, method, suffix, query, headers, body)
	if err != nil {
		if errors.Is(err, scheduler.ErrUnavailable) {
			return nil, upstream(err, "Scheduler service is unavailable")
		}
		return nil, err
	}
	return resp, nil
}

func filterQuery(filter db.ScheduleFilter) url.Values {
	q := url.Values{}
	if filter.DatasetID != "" {
		q.Set("dataset_id", filter.DatasetID)
	}
	if filter.DatasourceID != "" {
		q.Set("datasource_id", filter.DatasourceID)
	}
	return q
}

func checkJSON(body []byte) error {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return badRequest("request body must be valid JSON")
	}
	return nil
}
