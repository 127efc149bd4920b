package service

import (
	"context"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/cloud"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type AlertSender interface {
	SendAlertNotification(ctx context.Context, a domain.Alert) error
	SendFaultNotification(ctx context.Context, f domain.Fault) error
}

type EventLog interface {
	PutEvent(ctx context.Context, item cloud.EventItem) error
	CloseEvent(ctx context.Context, eventID string) error
}

// Notifier forwards alert and fault activity to the cloud. Emergency or
// high-priority alerts and critical faults page operators through the
// sender; every event is written to the log. Paging is rate limited.
type Notifier struct {
	sender  AlertSender
	log     EventLog
	limiter *rate.Limiter
	logger  zerolog.Logger

	queue chan func(context.Context)

	alerts map[string]bool // id -> acknowledged
	faults map[string]bool // id -> resolved
}

func NewNotifier(sender AlertSender, log EventLog, perMinute int, logger zerolog.Logger) *Notifier {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &Notifier{
		sender:  sender,
		log:     log,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		logger:  logger,
		queue:   make(chan func(context.Context), 128),
		alerts:  map[string]bool{},
		faults:  map[string]bool{},
	}
}

// Observe is a store subscriber. Events that leave the snapshot are
// forgotten; open ones are closed in the log first.
func (n *Notifier) Observe(s domain.DashboardState) {
	present := make(map[string]struct{}, len(s.Alerts)+len(s.Faults))
	for _, a := range s.Alerts {
		present[a.ID] = struct{}{}
		acked, seen := n.alerts[a.ID]
		n.alerts[a.ID] = a.IsAcknowledged
		switch {
		case !seen:
			n.enqueue(n.alertJob(a))
		case !acked && a.IsAcknowledged:
			n.enqueue(n.closeJob(a.ID))
		}
	}
	for _, f := range s.Faults {
		present[f.ID] = struct{}{}
		resolved, seen := n.faults[f.ID]
		n.faults[f.ID] = f.IsResolved
		switch {
		case !seen:
			n.enqueue(n.faultJob(f))
		case !resolved && f.IsResolved:
			n.enqueue(n.closeJob(f.ID))
		}
	}
	n.forget(n.alerts, present)
	n.forget(n.faults, present)
}

func (n *Notifier) forget(closed map[string]bool, present map[string]struct{}) {
	for id, done := range closed {
		if _, ok := present[id]; ok {
			continue
		}
		if !done {
			n.enqueue(n.closeJob(id))
		}
		delete(closed, id)
	}
}

func (n *Notifier) enqueue(job func(context.Context)) {
	select {
	case n.queue <- job:
	default:
		n.logger.Warn().Msg("notification queue full, dropping")
	}
}

func pages(a domain.Alert) bool {
	return a.Type == domain.AlertEmergency || a.Priority == domain.PriorityHigh
}

func (n *Notifier) alertJob(a domain.Alert) func(context.Context) {
	return func(ctx context.Context) {
		if n.log != nil {
			if err := n.log.PutEvent(ctx, cloud.AlertItem(a)); err != nil {
				n.logger.Error().Err(err).Str("id", a.ID).Msg("log alert")
			}
		}
		if n.sender == nil || !pages(a) {
			return
		}
		if err := n.limiter.Wait(ctx); err != nil {
			return
		}
		if err := n.sender.SendAlertNotification(ctx, a); err != nil {
			n.logger.Error().Err(err).Str("id", a.ID).Msg("notify alert")
		}
	}
}

func (n *Notifier) faultJob(f domain.Fault) func(context.Context) {
	return func(ctx context.Context) {
		if n.log != nil {
			if err := n.log.PutEvent(ctx, cloud.FaultItem(f)); err != nil {
				n.logger.Error().Err(err).Str("id", f.ID).Msg("log fault")
			}
		}
		if n.sender == nil || f.Severity != domain.SeverityCritical {
			return
		}
		if err := n.limiter.Wait(ctx); err != nil {
			return
		}
		if err := n.sender.SendFaultNotification(ctx, f); err != nil {
			n.logger.Error().Err(err).Str("id", f.ID).Msg("notify fault")
		}
	}
}

func (n *Notifier) closeJob(id string) func(context.Context) {
	return func(ctx context.Context) {
		if n.log == nil {
			return
		}
		if err := n.log.CloseEvent(ctx, id); err != nil {
			n.logger.Error().Err(err).Str("id", id).Msg("close event")
		}
	}
}

// Run drains the queue until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-n.queue:
			job(ctx)
		}
	}
}
