package schedule

import (
	"fmt"
	"net/http"
	"time"

	"clinic-orchestrator/config"
	"clinic-orchestrator/internal/domain/repository"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// NewProvider builds the schedule provider selected by cfg.Provider.
func NewProvider(cfg config.ScheduleConfig, shiftRepo repository.DoctorShiftRepository, loc *time.Location, log *logrus.Logger) (repository.ScheduleProvider, error) {
	switch cfg.Provider {
	case "", "db":
		return NewDBProvider(shiftRepo, loc), nil
	case "http":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("SCHEDULE_BASE_URL is required for the http schedule provider")
		}
		client := resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetRetryCount(cfg.Retries).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			})
		return NewHTTPProvider(client, loc, log), nil
	}
	return nil, fmt.Errorf("unknown schedule provider %q", cfg.Provider)
}
