package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"lankasafe-hq/districts"
	"lankasafe-hq/filter"
	"lankasafe-hq/types"
)

type recordingRelay struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (r *recordingRelay) Name() string { return "recording" }

func (r *recordingRelay) Send(_ context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return r.err
}

type fakeCooldown struct {
	seen map[string]bool
	err  error
}

func (f *fakeCooldown) Acquire(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeCooldown) Release(_ context.Context, key string) error {
	delete(f.seen, key)
	return nil
}

func newRouter(relay Relay) *Router {
	return &Router{
		Districts: districts.Default(),
		Relay:     relay,
		Location:  time.UTC,
		Log:       zap.NewNop(),
	}
}

func TestOfficerAddress(t *testing.T) {
	cases := map[string]string{
		"Colombo":         "colombo@mailinator.com",
		"Nuwara Eliya":    "nuwaraeliya@mailinator.com",
		districts.Unknown: "",
	}
	for d, want := range cases {
		if got := OfficerAddress(d, DefaultDomain); got != want {
			t.Errorf("OfficerAddress(%q) = %q, want %q", d, got, want)
		}
	}
}

func TestRouteNoDistrictMakesNoRelayCall(t *testing.T) {
	relay := &recordingRelay{}
	r := newRouter(relay)
	aid := types.AidRequest{ID: "a1", Latitude: 10.0, Longitude: 85.0, PriorityLevel: 5}

	res, err := r.RouteAndNotify(context.Background(), aid)
	if !errors.Is(err, ErrNoDistrictMatch) {
		t.Fatalf("err = %v, want ErrNoDistrictMatch", err)
	}
	if len(relay.sent) != 0 {
		t.Fatalf("relay called %d times, want 0", len(relay.sent))
	}
	if res.District != districts.Unknown || res.To != "" {
		t.Fatalf("result = %+v", res)
	}
}

func TestRouteIncident(t *testing.T) {
	relay := &recordingRelay{}
	r := newRouter(relay)
	inc := types.Incident{
		ID: "inc-9", Type: "Flood", Severity: 5, Latitude: 6.9, Longitude: 79.85,
		Timestamp:      time.Date(2025, 11, 28, 14, 5, 0, 0, time.UTC).UnixMilli(),
		Description:    "Water rising",
		CloudImageURLs: []string{"a", "b"},
	}
	res, err := r.RouteAndNotify(context.Background(), inc)
	if err != nil {
		t.Fatal(err)
	}
	if len(relay.sent) != 1 {
		t.Fatalf("relay called %d times, want 1", len(relay.sent))
	}
	m := relay.sent[0]
	if m.To != "colombo@mailinator.com" || m.District != "Colombo" {
		t.Fatalf("message = %+v", m)
	}
	if m.Subject != "[CRITICAL] Flood Incident in Colombo District" {
		t.Fatalf("subject = %q", m.Subject)
	}
	for _, want := range []string{
		"Severity: CRITICAL (5/5)",
		"Reported At: Nov 28, 2025, 2:05 PM",
		"Coordinates: 6.900000, 79.850000",
		"Google Maps: https://www.google.com/maps?q=6.9,79.85",
		"INCIDENT ID: inc-9",
		"Images Available: 2 photo(s)",
		"This is an automated alert from LankaSafe HQ",
	} {
		if !strings.Contains(m.Body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if !res.Delivered || !strings.HasPrefix(res.MailtoURI, "mailto:colombo@mailinator.com?subject=") {
		t.Fatalf("result = %+v", res)
	}
}

func TestComposeAidRequest(t *testing.T) {
	aid := types.AidRequest{
		ID: "aid-1", PriorityLevel: 3, AidTypes: []string{"Food", "Water"},
		RequesterName: "S. Perera", ContactNumber: "0771234567", NumberOfPeople: 12,
		Latitude: 7.29, Longitude: 80.63,
	}
	subject, body, err := Compose(aid, "Kandy", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if subject != "[HIGH PRIORITY] Aid Request in Kandy District" {
		t.Fatalf("subject = %q", subject)
	}
	for _, want := range []string{"• Food\n• Water", "Contact Person: S. Perera", "Number of People: 12", "REQUEST ID: aid-1"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if _, _, err := Compose(types.Volunteer{}, "Kandy", nil); !errors.Is(err, ErrUnsupportedRecord) {
		t.Fatalf("err = %v, want ErrUnsupportedRecord", err)
	}
}

func TestMailtoURIEncoding(t *testing.T) {
	got := MailtoURI("kandy@mailinator.com", "[HIGH] A & B", "line one\nline two")
	want := "mailto:kandy@mailinator.com?subject=%5BHIGH%5D%20A%20%26%20B&body=line%20one%0Aline%20two"
	if got != want {
		t.Fatalf("MailtoURI = %q\nwant      %q", got, want)
	}
}

func TestRouteSendFailure(t *testing.T) {
	relay := &recordingRelay{err: errors.New("quota exceeded")}
	r := newRouter(relay)
	_, err := r.RouteAndNotify(context.Background(), types.Incident{ID: "i", Latitude: 6.9, Longitude: 79.85})
	var se *SendError
	if !errors.As(err, &se) || se.To != "colombo@mailinator.com" {
		t.Fatalf("err = %v, want *SendError", err)
	}
	if len(relay.sent) != 1 {
		t.Fatalf("relay called %d times, want exactly 1 (no retry)", len(relay.sent))
	}
}

func TestRouteCooldown(t *testing.T) {
	relay := &recordingRelay{}
	r := newRouter(relay)
	r.Cooldown = &fakeCooldown{seen: map[string]bool{}}
	inc := types.Incident{ID: "i", Latitude: 6.9, Longitude: 79.85}

	if _, err := r.RouteAndNotify(context.Background(), inc); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RouteAndNotify(context.Background(), inc); !errors.Is(err, ErrCooldown) {
		t.Fatalf("second send err = %v, want ErrCooldown", err)
	}
	if len(relay.sent) != 1 {
		t.Fatalf("relay called %d times, want 1", len(relay.sent))
	}

	r.Cooldown = &fakeCooldown{err: errors.New("redis down")}
	if _, err := r.RouteAndNotify(context.Background(), inc); err != nil {
		t.Fatalf("cooldown outage should not block sending: %v", err)
	}
}

func TestRouteCooldownReleasedAfterSendFailure(t *testing.T) {
	relay := &recordingRelay{err: errors.New("relay down")}
	r := newRouter(relay)
	r.Cooldown = &fakeCooldown{seen: map[string]bool{}}
	inc := types.Incident{ID: "i", Latitude: 6.9, Longitude: 79.85}

	var se *SendError
	if _, err := r.RouteAndNotify(context.Background(), inc); !errors.As(err, &se) {
		t.Fatalf("first send err = %v, want *SendError", err)
	}

	relay.err = nil
	if _, err := r.RouteAndNotify(context.Background(), inc); err != nil {
		t.Fatalf("manual retry after failure: %v", err)
	}
	if len(relay.sent) != 2 {
		t.Fatalf("relay called %d times, want 2", len(relay.sent))
	}
	if _, err := r.RouteAndNotify(context.Background(), inc); !errors.Is(err, ErrCooldown) {
		t.Fatalf("send after success err = %v, want ErrCooldown", err)
	}
}

func TestMailtoRelayIsHandoff(t *testing.T) {
	r := newRouter(MailtoRelay{})
	res, err := r.RouteAndNotify(context.Background(), types.Incident{ID: "i", Latitude: 7.29, Longitude: 80.63})
	if err != nil {
		t.Fatal(err)
	}
	if res.Delivered || res.MailtoURI == "" || res.To != "kandy@mailinator.com" {
		t.Fatalf("result = %+v", res)
	}
}

// The dashboard filter and the router must put every record in the same district.
func TestRouterAgreesWithDistrictFilter(t *testing.T) {
	g := districts.Default()
	relay := &recordingRelay{}
	r := &Router{Districts: g, Relay: relay, Log: zap.NewNop()}

	var incidents []types.Incident
	for lat := 5.8; lat <= 9.9; lat += 0.17 {
		for lng := 79.6; lng <= 82.0; lng += 0.19 {
			incidents = append(incidents, types.Incident{ID: "p", Latitude: lat, Longitude: lng})
		}
	}
	for _, inc := range incidents {
		relay.sent = nil
		res, err := r.RouteAndNotify(context.Background(), inc)
		var filtered string
		for _, name := range append(g.Names(), districts.Unknown) {
			if len(filter.ByDistrict([]types.Incident{inc}, name, g)) == 1 {
				filtered = name
				break
			}
		}
		if res.District != filtered {
			t.Fatalf("(%v, %v): router says %q, filter says %q", inc.Latitude, inc.Longitude, res.District, filtered)
		}
		if filtered == districts.Unknown && !errors.Is(err, ErrNoDistrictMatch) {
			t.Fatalf("(%v, %v): expected ErrNoDistrictMatch, got %v", inc.Latitude, inc.Longitude, err)
		}
	}
}

func TestEmailJSRelay(t *testing.T) {
	var got emailJSRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	relay := EmailJSRelay{Endpoint: srv.URL, ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub", Client: srv.Client()}
	err := relay.Send(context.Background(), Message{To: "galle@mailinator.com", Subject: "s", Body: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if got.ServiceID != "svc" || got.UserID != "pub" || got.TemplateParams["to_email"] != "galle@mailinator.com" || got.TemplateParams["message"] != "b" {
		t.Fatalf("request = %+v", got)
	}
}

func TestEmailJSRelayRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The user ID is invalid", http.StatusBadRequest)
	}))
	defer srv.Close()

	relay := EmailJSRelay{Endpoint: srv.URL, Client: srv.Client()}
	err := relay.Send(context.Background(), Message{})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("err = %v, want 400 error", err)
	}
}

func TestSlackRelay(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	relay := SlackRelay{WebhookURL: srv.URL}
	if err := relay.Send(context.Background(), Message{Subject: "[URGENT PRIORITY] Aid Request in Galle District", District: "Galle", To: "galle@mailinator.com", Body: "b"}); err != nil {
		t.Fatal(err)
	}
	if payload["text"] != "[URGENT PRIORITY] Aid Request in Galle District" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestNewRelay(t *testing.T) {
	if r, err := NewRelay(RelayConfig{}); err != nil || r.Name() != RelayMailto {
		t.Fatalf("default relay = %v, %v", r, err)
	}
	if _, err := NewRelay(RelayConfig{Kind: RelayEmailJS}); err == nil {
		t.Fatal("emailjs without keys should fail")
	}
	if _, err := NewRelay(RelayConfig{Kind: RelaySlack}); err == nil {
		t.Fatal("slack without webhook should fail")
	}
	if _, err := NewRelay(RelayConfig{Kind: "pigeon"}); err == nil {
		t.Fatal("unknown relay should fail")
	}
}
