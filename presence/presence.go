// Package presence answers whether a field reporter's app is reachable right
// now, and records a pending check when it is not.
package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lankasafe-hq/db"
)

const (
	OnlineThreshold = 90 * time.Second
	CheckTTL        = 2 * time.Minute

	CheckPending  = "pending"
	CheckResolved = "resolved"
	CheckExpired  = "expired"

	// Result of RequestCheck when the user is already online.
	CheckOnline = "online"
)

var ErrInvalidContext = errors.New("context type must be incident or aidRequest")

type Status struct {
	UserID     string `json:"userId"`
	Online     bool   `json:"online"`
	LastSeenAt int64  `json:"lastSeenAt,omitempty"`
	Label      string `json:"label"`
}

// Service reads and writes presence documents through the record store.
type Service struct {
	Store db.RecordStore
	Log   *zap.Logger
}

// Status reports a user online when they were seen within OnlineThreshold.
// A user with no presence document is offline.
func (s *Service) Status(ctx context.Context, userID string, now time.Time) (Status, error) {
	out := Status{UserID: userID, Label: "Offline"}
	doc, err := s.Store.Get(ctx, db.PresenceCollection, userID)
	if errors.Is(err, db.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	seen := millis(doc.Data["lastSeenAt"])
	if seen == 0 {
		return out, nil
	}
	out.LastSeenAt = seen
	since := now.Sub(time.UnixMilli(seen))
	out.Online = since <= OnlineThreshold
	out.Label = label(out.Online, since)
	return out, nil
}

func label(online bool, since time.Duration) string {
	switch {
	case online:
		return "Online"
	case since < time.Hour:
		return fmt.Sprintf("Offline (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		return fmt.Sprintf("Offline (%dh ago)", int(since.Hours()))
	}
	return "Offline (>24h ago)"
}

type CheckRequest struct {
	UserID      string `json:"userId"`
	AdminID     string `json:"adminId"`
	ContextType string `json:"contextType"`
	ContextID   string `json:"contextId"`
}

type CheckResult struct {
	Status    string `json:"status"`
	CheckID   string `json:"checkId,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

// RequestCheck answers "online" straight away, or stores a pending check that
// the field app resolves when it next comes online.
func (s *Service) RequestCheck(ctx context.Context, req CheckRequest, now time.Time) (CheckResult, error) {
	if req.ContextType != "incident" && req.ContextType != "aidRequest" {
		return CheckResult{}, ErrInvalidContext
	}
	st, err := s.Status(ctx, req.UserID, now)
	if err != nil {
		return CheckResult{}, err
	}
	if st.Online {
		return CheckResult{Status: CheckOnline}, nil
	}

	id := uuid.NewString()
	expires := now.Add(CheckTTL).UnixMilli()
	err = s.Store.CreateRecord(ctx, db.ReachabilityCollection, id, map[string]any{
		"id":          id,
		"userId":      req.UserID,
		"adminId":     req.AdminID,
		"contextType": req.ContextType,
		"contextId":   req.ContextID,
		"status":      CheckPending,
		"createdAt":   now.UnixMilli(),
		"expiresAt":   expires,
	})
	if err != nil {
		return CheckResult{}, err
	}
	s.Log.Info("reachability check pending", zap.String("check", id), zap.String("user", req.UserID))
	return CheckResult{Status: CheckPending, CheckID: id, ExpiresAt: expires}, nil
}

// Check reads a check, reporting a pending one past its expiry as expired.
func (s *Service) Check(ctx context.Context, id string, now time.Time) (CheckResult, error) {
	doc, err := s.Store.Get(ctx, db.ReachabilityCollection, id)
	if err != nil {
		return CheckResult{}, err
	}
	status, _ := doc.Data["status"].(string)
	expires := millis(doc.Data["expiresAt"])
	if status == CheckPending && now.UnixMilli() > expires {
		status = CheckExpired
	}
	return CheckResult{Status: status, CheckID: id, ExpiresAt: expires}, nil
}

// ExpireChecks marks every pending check past its expiry as expired and returns
// how many it changed.
func (s *Service) ExpireChecks(ctx context.Context, now time.Time) (int, error) {
	docs, err := s.Store.Where(ctx, db.ReachabilityCollection, "status", CheckPending)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range docs {
		if millis(d.Data["expiresAt"]) >= now.UnixMilli() {
			continue
		}
		if err := s.Store.UpdatePartial(ctx, db.ReachabilityCollection, d.ID, map[string]any{
			"status":          CheckExpired,
			db.UpdatedAtField: now.UnixMilli(),
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func millis(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case time.Time:
		return t.UnixMilli()
	}
	return 0
}
