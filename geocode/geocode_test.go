package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"googlemaps.github.io/maps"
)

func TestMapsGeocoder(t *testing.T) {
	var region string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		region = r.URL.Query().Get("region")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("address") == "nowhere" {
			w.Write([]byte(`{"results":[],"status":"ZERO_RESULTS"}`))
			return
		}
		w.Write([]byte(`{"results":[{"formatted_address":"Kandy, Sri Lanka","geometry":{"location":{"lat":7.2906,"lng":80.6337}}}],"status":"OK"}`))
	}))
	defer srv.Close()

	g, err := NewMapsGeocoder("test-key", maps.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	p, err := g.Geocode(context.Background(), "Kandy")
	if err != nil {
		t.Fatal(err)
	}
	if p.Latitude != 7.2906 || p.Longitude != 80.6337 || p.Address != "Kandy, Sri Lanka" {
		t.Fatalf("place = %+v", p)
	}
	if region != "lk" {
		t.Fatalf("region = %q, want lk", region)
	}

	if _, err := g.Geocode(context.Background(), "nowhere"); !errors.Is(err, ErrNoResults) {
		t.Fatalf("err = %v, want ErrNoResults", err)
	}
	if _, err := g.Geocode(context.Background(), "  "); !errors.Is(err, ErrNoResults) {
		t.Fatalf("blank address err = %v", err)
	}
}

func TestNewMapsGeocoderNeedsKey(t *testing.T) {
	if _, err := NewMapsGeocoder(""); err == nil {
		t.Fatal("expected error without key")
	}
}
