package cronjobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"lankasafe-hq/districts"
	"lankasafe-hq/filter"
	"lankasafe-hq/types"
)

const jobTimeout = 30 * time.Second

// Snapshot is the part of the live feed the digest reads.
type Snapshot interface {
	Ready() bool
	Incidents() []types.Incident
	AidRequests() []types.AidRequest
}

// Expirer is satisfied by presence.Service.
type Expirer interface {
	ExpireChecks(ctx context.Context, now time.Time) (int, error)
}

type Districts interface {
	filter.Classifier
	Names() []string
}

type Jobs struct {
	Checks    Expirer
	Feed      Snapshot
	Districts Districts
	Log       *zap.Logger
	Now       func() time.Time
}

type Schedules struct {
	Sweep  string
	Digest string
}

// DistrictDigest is one line of the hourly digest.
type DistrictDigest struct {
	District         string
	OpenCritical     int
	PendingAid       int
	UrgentPendingAid int
}

func (j *Jobs) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// SweepReachability expires overdue reachability checks.
func (j *Jobs) SweepReachability(ctx context.Context) {
	n, err := j.Checks.ExpireChecks(ctx, j.now())
	if err != nil {
		j.Log.Error("reachability sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		j.Log.Info("reachability checks expired", zap.Int("count", n))
	}
}

// Digest counts open critical incidents and pending aid per district. Districts
// with nothing open are left out; records outside every district are reported
// under Unknown.
func (j *Jobs) Digest() []DistrictDigest {
	incidents := j.Feed.Incidents()
	aid := j.Feed.AidRequests()

	names := append(j.Districts.Names(), districts.Unknown)
	var out []DistrictDigest
	for _, name := range names {
		d := DistrictDigest{District: name}
		for _, inc := range filter.ByDistrict(incidents, name, j.Districts) {
			if types.IsCritical(inc.Rank()) && inc.Progress() != types.Completed {
				d.OpenCritical++
			}
		}
		for _, a := range filter.ByDistrict(aid, name, j.Districts) {
			if a.Progress() == types.Pending {
				d.PendingAid++
				if types.IsCritical(a.Rank()) {
					d.UrgentPendingAid++
				}
			}
		}
		if d.OpenCritical+d.PendingAid > 0 {
			out = append(out, d)
		}
	}
	return out
}

func (j *Jobs) logDigest() {
	if !j.Feed.Ready() {
		j.Log.Warn("district digest skipped: feed not ready")
		return
	}
	digest := j.Digest()
	for _, d := range digest {
		j.Log.Info("district digest",
			zap.String("district", d.District),
			zap.Int("open_critical", d.OpenCritical),
			zap.Int("pending_aid", d.PendingAid),
			zap.Int("urgent_pending_aid", d.UrgentPendingAid))
	}
	j.Log.Info("district digest done", zap.Int("districts", len(digest)))
}

// Start schedules both jobs and starts the scheduler. Callers stop it on shutdown.
func Start(j *Jobs, s Schedules) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(s.Sweep, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		j.SweepReachability(ctx)
	})
	if err != nil {
		return nil, err
	}

	_, err = c.AddFunc(s.Digest, func() {
		j.Log.Debug("cron: district digest running")
		j.logDigest()
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	j.Log.Info("cron jobs started", zap.String("sweep", s.Sweep), zap.String("digest", s.Digest))
	return c, nil
}
