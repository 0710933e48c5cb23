package fleet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"uld-tracker/internal/alerting"
	"uld-tracker/internal/analytics"
	"uld-tracker/internal/broadcast"
	"uld-tracker/internal/domain/alert"
	"uld-tracker/internal/domain/uld"
	"uld-tracker/internal/forecast"
	appErrors "uld-tracker/pkg/errors"
)

const DefaultAlertLimit = 100

// Recorder receives counts for the metrics endpoint.
type Recorder interface {
	AlertRaised(kind alert.Kind, severity alert.Severity)
	ReportApplied(source string, err error)
}

type nopRecorder struct{}

func (nopRecorder) AlertRaised(alert.Kind, alert.Severity) {}
func (nopRecorder) ReportApplied(string, error)            {}

type Dependencies struct {
	ULDs       uld.Repository
	Alerts     alert.Repository
	Engine     *alerting.Engine
	Hub        *broadcast.Hub
	Forecaster forecast.Forecaster
	Recorder   Recorder
	Logger     *zap.Logger
}

// Service is the single entry point for reading and mutating fleet state.
//
// Every mutation, whether from the simulator or an inbound report, runs
// mutate, evaluate, publish under one lock, so for a given ULD the
// unit-update event is always published after the alerts derived from the
// same state.
type Service struct {
	mu sync.Mutex

	ulds       uld.Repository
	alerts     alert.Repository
	engine     *alerting.Engine
	aggregator *analytics.Aggregator
	hub        *broadcast.Hub
	forecaster forecast.Forecaster
	recorder   Recorder
	log        *zap.Logger
}

func NewService(deps Dependencies) *Service {
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Engine == nil {
		deps.Engine = alerting.NewEngine(alerting.DefaultThresholds())
	}

	return &Service{
		ulds:       deps.ULDs,
		alerts:     deps.Alerts,
		engine:     deps.Engine,
		aggregator: analytics.NewAggregator(deps.ULDs, deps.Engine.Thresholds().LowBattery),
		hub:        deps.Hub,
		forecaster: deps.Forecaster,
		recorder:   deps.Recorder,
		log:        deps.Logger,
	}
}

// ReportTelemetry applies an inbound report. Unknown ids return
// uld.ErrULDNotFound and invalid fields a *uld.ValidationError; in both cases
// the registry is left as it was and nothing is published.
func (s *Service) ReportTelemetry(ctx context.Context, id string, patch *uld.Patch) (uld.ULD, error) {
	return s.report(ctx, "http", id, patch)
}

// ReportTelemetryFrom is ReportTelemetry tagged with the intake it came from.
func (s *Service) ReportTelemetryFrom(ctx context.Context, source, id string, patch *uld.Patch) (uld.ULD, error) {
	return s.report(ctx, source, id, patch)
}

func (s *Service) report(ctx context.Context, source, id string, patch *uld.Patch) (uld.ULD, error) {
	if err := ctx.Err(); err != nil {
		return uld.ULD{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.ulds.ApplyReport(id, patch)
	s.recorder.ReportApplied(source, err)
	if err != nil {
		var validationErr *uld.ValidationError
		if errors.As(err, &validationErr) {
			s.log.Debug("Rejected telemetry report",
				zap.String("uld_id", id),
				zap.String("source", source),
				zap.String("field", validationErr.Field),
			)
		}
		return uld.ULD{}, err
	}

	raised := s.process(&updated)

	s.log.Debug("Telemetry report applied",
		zap.String("uld_id", id),
		zap.String("source", source),
		zap.Int("alerts", len(raised)),
	)

	return updated, nil
}

// Mutate runs fn against the stored ULD and then drives the same alert and
// publish path as a report.
func (s *Service) Mutate(id string, fn func(u *uld.ULD)) (uld.ULD, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.ulds.Update(id, fn)
	if err != nil {
		return uld.ULD{}, err
	}

	s.process(&updated)
	return updated, nil
}

// process must be called with s.mu held.
func (s *Service) process(u *uld.ULD) []alert.Alert {
	raised := s.engine.Evaluate(u)

	for _, a := range raised {
		s.alerts.Add(a)
		s.hub.Publish(broadcast.KindNewAlert, a)
		s.recorder.AlertRaised(a.Kind, a.Severity)

		s.log.Info("Alert raised",
			zap.String("alert_id", a.ID),
			zap.String("uld_id", a.ULDID),
			zap.String("kind", string(a.Kind)),
			zap.String("severity", string(a.Severity)),
			zap.Float64("value", a.Value),
		)
	}

	s.hub.Publish(broadcast.KindUnitUpdate, *u)
	return raised
}

func (s *Service) ListAssets() []uld.ULD {
	return s.ulds.List()
}

// FindAssets is ListAssets narrowed by filter, still in insertion order.
func (s *Service) FindAssets(filter *ListULDsRequest) []uld.ULD {
	all := s.ulds.List()
	if filter == nil {
		return all
	}

	out := make([]uld.ULD, 0, len(all))
	for i := range all {
		if filter.Matches(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out
}

func (s *Service) AssetIDs() []string {
	return s.ulds.IDs()
}

func (s *Service) GetAsset(id string) (uld.ULD, error) {
	return s.ulds.Get(id)
}

// GetAlerts returns up to limit retained alerts, newest first. A non-positive
// limit means DefaultAlertLimit.
func (s *Service) GetAlerts(limit int) []alert.Alert {
	if limit <= 0 {
		limit = DefaultAlertLimit
	}
	return s.alerts.Recent(limit)
}

func (s *Service) GetAnalyticsSnapshot() analytics.Snapshot {
	return s.aggregator.Compute()
}

// PublishAnalytics computes a snapshot and broadcasts it.
func (s *Service) PublishAnalytics() analytics.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.aggregator.Compute()
	s.hub.Publish(broadcast.KindAnalyticsUpdate, snapshot)
	return snapshot
}

func (s *Service) Forecast(ctx context.Context) (*forecast.Forecast, error) {
	if s.forecaster == nil {
		return nil, appErrors.ErrForecastUnavailable
	}

	f, err := s.forecaster.Forecast(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrForecastUnavailable, err)
	}
	return f, nil
}

func (s *Service) Subscribe(buffer int) (*broadcast.Subscription, error) {
	return s.hub.SubscribeWithBuffer(buffer)
}

func (s *Service) HubStats() broadcast.Stats {
	return s.hub.Stats()
}
