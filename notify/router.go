// Package notify routes a record to its district officer and hands the alert
// to a relay.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lankasafe-hq/districts"
	"lankasafe-hq/metrics"
)

const DefaultDomain = "mailinator.com"

// ErrNoDistrictMatch means the coordinates fall outside every district box, so
// there is no officer to address. Nothing is sent.
var ErrNoDistrictMatch = errors.New("no district matches the record's coordinates")

// SendError is a relay failure. It is not retried.
type SendError struct {
	Relay string
	To    string
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send via %s to %s: %v", e.Relay, e.To, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Routable is a geotagged record with an id.
type Routable interface {
	RecordID() string
	Coordinates() (lat, lng float64)
}

// Classifier is satisfied by *districts.Gazetteer. The router and the dashboard
// filters must share one.
type Classifier interface {
	Classify(lat, lng float64) string
}

type Router struct {
	Districts Classifier
	Domain    string
	Relay     Relay
	Cooldown  Cooldown
	Location  *time.Location
	Log       *zap.Logger
}

// Result describes what was routed. MailtoURI is always filled once a district
// matched, so the user can fall back to a local mail client.
type Result struct {
	District  string `json:"district"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	MailtoURI string `json:"mailto"`
	Relay     string `json:"relay"`
	Delivered bool   `json:"delivered"`
}

// RouteAndNotify classifies the record, addresses its district officer, composes
// the alert and sends it once.
func (r *Router) RouteAndNotify(ctx context.Context, rec Routable) (Result, error) {
	lat, lng := rec.Coordinates()
	district := r.Districts.Classify(lat, lng)
	res := Result{District: district, Relay: r.Relay.Name()}
	if district == districts.Unknown {
		metrics.NotificationsTotal.WithLabelValues(res.Relay, "no_district").Inc()
		r.Log.Warn("no district for record",
			zap.String("id", rec.RecordID()),
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
		)
		return res, ErrNoDistrictMatch
	}

	domain := r.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	res.To = OfficerAddress(district, domain)

	subject, body, err := Compose(rec, district, r.Location)
	if err != nil {
		return res, err
	}
	res.Subject, res.Body = subject, body
	res.MailtoURI = MailtoURI(res.To, subject, body)

	acquired := false
	if r.Cooldown != nil {
		ok, err := r.Cooldown.Acquire(ctx, rec.RecordID())
		switch {
		case err != nil:
			r.Log.Warn("cooldown check failed, sending anyway", zap.String("id", rec.RecordID()), zap.Error(err))
		case !ok:
			metrics.NotificationsTotal.WithLabelValues(res.Relay, "cooldown").Inc()
			return res, ErrCooldown
		default:
			acquired = true
		}
	}

	start := time.Now()
	err = r.Relay.Send(ctx, Message{To: res.To, Subject: subject, Body: body, District: district, RecordID: rec.RecordID()})
	metrics.NotifyDurationMs.Observe(float64(time.Since(start).Milliseconds()))

	fields := []zap.Field{
		zap.String("id", rec.RecordID()),
		zap.String("district", district),
		zap.String("to", res.To),
		zap.String("relay", res.Relay),
	}
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(res.Relay, "error").Inc()
		r.Log.Error("notification failed", append(fields, zap.Error(err))...)
		// a failed send stays open for a manual retry
		if acquired {
			if rerr := r.Cooldown.Release(ctx, rec.RecordID()); rerr != nil {
				r.Log.Warn("cooldown release failed", zap.String("id", rec.RecordID()), zap.Error(rerr))
			}
		}
		return res, &SendError{Relay: res.Relay, To: res.To, Err: err}
	}
	metrics.NotificationsTotal.WithLabelValues(res.Relay, "ok").Inc()
	r.Log.Info("notification routed", fields...)
	_, handoff := r.Relay.(MailtoRelay)
	res.Delivered = !handoff
	return res, nil
}
