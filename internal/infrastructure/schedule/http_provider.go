package schedule

import (
	"context"
	"fmt"
	"time"

	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/repository"
	"clinic-orchestrator/pkg/apperror"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type shiftPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type shiftsResponse struct {
	Shifts []shiftPayload `json:"shifts"`
}

type httpProvider struct {
	client *resty.Client
	loc    *time.Location
	log    *logrus.Logger
	group  singleflight.Group
}

// NewHTTPProvider asks an external schedule service for shifts:
// GET /doctors/{id}/shifts?date=YYYY-MM-DD. Concurrent lookups of the same
// doctor and day share one request.
func NewHTTPProvider(client *resty.Client, loc *time.Location, log *logrus.Logger) repository.ScheduleProvider {
	return &httpProvider{client: client, loc: loc, log: log}
}

func (p *httpProvider) GetShiftsForDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]entity.Shift, error) {
	day := date.Format("2006-01-02")
	key := doctorID.String() + ":" + day

	v, err, shared := p.group.Do(key, func() (interface{}, error) {
		return p.fetch(ctx, doctorID, date, day)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		p.log.Debugf("Shared schedule lookup for %s", key)
	}
	return v.([]entity.Shift), nil
}

func (p *httpProvider) fetch(ctx context.Context, doctorID uuid.UUID, date time.Time, day string) ([]entity.Shift, error) {
	var body shiftsResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("doctorId", doctorID.String()).
		SetQueryParam("date", day).
		SetResult(&body).
		Get("/doctors/{doctorId}/shifts")
	if err != nil {
		p.log.Warnf("Failed to reach schedule service for doctor %s: %+v", doctorID, err)
		return nil, apperror.Upstream("schedule_unavailable", "could not reach schedule service", err)
	}
	if resp.IsError() {
		return nil, apperror.Upstream("schedule_unavailable", "could not reach schedule service",
			fmt.Errorf("schedule service responded %s", resp.Status()))
	}

	shifts := make([]entity.Shift, 0, len(body.Shifts))
	for _, s := range body.Shifts {
		start, err := entity.ClockOnDay(date, s.Start, p.loc)
		if err != nil {
			return nil, apperror.Upstream("schedule_invalid", "schedule service returned an invalid shift", err)
		}
		end, err := entity.ClockOnDay(date, s.End, p.loc)
		if err != nil {
			return nil, apperror.Upstream("schedule_invalid", "schedule service returned an invalid shift", err)
		}
		shifts = append(shifts, entity.Shift{Start: start, End: end})
	}
	return shifts, nil
}
