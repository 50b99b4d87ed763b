package districts

import (
	"strings"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	g := Default()
	if g.Version() != 1 {
		t.Fatalf("version = %d, want 1", g.Version())
	}
	names := g.Names()
	if len(names) != 25 {
		t.Fatalf("got %d districts, want 25", len(names))
	}
	if names[0] != "Colombo" || names[24] != "Kegalle" {
		t.Fatalf("table order changed: first=%q last=%q", names[0], names[24])
	}
	d, ok := g.Lookup("Colombo")
	if !ok {
		t.Fatal("Colombo missing")
	}
	want := BoundingBox{MinLat: 6.78, MinLng: 79.74, MaxLat: 7.05, MaxLng: 80.05}
	if d.Bounds != want {
		t.Fatalf("Colombo bounds = %+v, want %+v", d.Bounds, want)
	}
	if _, ok := g.Lookup(AllDistricts); ok {
		t.Fatal("wildcard must not be a district")
	}
}

func TestClassifyExamples(t *testing.T) {
	g := Default()
	cases := []struct {
		lat, lng float64
		want     string
	}{
		{6.90, 79.85, "Colombo"},
		{10.0, 85.0, Unknown},
		{7.2906, 80.6337, "Kandy"},
		{9.6615, 80.0255, "Jaffna"},
		{0, 0, Unknown},
		// box edges are inclusive
		{6.78, 79.74, "Colombo"},
	}
	for _, c := range cases {
		if got := g.Classify(c.lat, c.lng); got != c.want {
			t.Errorf("Classify(%v, %v) = %q, want %q", c.lat, c.lng, got, c.want)
		}
	}
}

func TestClassifyInteriorPoints(t *testing.T) {
	g := Default()
	const steps = 10
	for _, d := range g.Districts() {
		b := d.Bounds
		unique := 0
		for i := 1; i < steps; i++ {
			for j := 1; j < steps; j++ {
				lat := b.MinLat + (b.MaxLat-b.MinLat)*float64(i)/steps
				lng := b.MinLng + (b.MaxLng-b.MinLng)*float64(j)/steps
				m := g.Matches(lat, lng)
				if len(m) != 1 {
					continue
				}
				unique++
				if got := g.Classify(lat, lng); got != d.Name {
					t.Fatalf("Classify(%v, %v) = %q, want %q", lat, lng, got, d.Name)
				}
			}
		}
		if unique == 0 {
			t.Errorf("%s has no interior point outside every other box", d.Name)
		}
	}
}

func TestClassifyOutsideAllBoxes(t *testing.T) {
	g := Default()
	points := [][2]float64{{5.0, 80.0}, {10.5, 80.0}, {7.5, 79.0}, {7.5, 82.5}, {-7.5, -80.0}}
	for _, p := range points {
		if got := g.Classify(p[0], p[1]); got != Unknown {
			t.Errorf("Classify(%v, %v) = %q, want Unknown", p[0], p[1], got)
		}
	}
}

func TestClassifyOverlapFirstMatchWins(t *testing.T) {
	g := Default()
	// inside both Colombo and Gampaha
	lat, lng := 7.0, 79.95
	m := g.Matches(lat, lng)
	if len(m) != 2 || m[0] != "Colombo" || m[1] != "Gampaha" {
		t.Fatalf("Matches = %v, want [Colombo Gampaha]", m)
	}
	for i := 0; i < 5; i++ {
		if got := g.Classify(lat, lng); got != "Colombo" {
			t.Fatalf("call %d: Classify = %q, want Colombo", i, got)
		}
	}
}

func TestView(t *testing.T) {
	g := Default()
	if v := g.View("Colombo"); v.Zoom != 11 || v.Center != [2]float64{6.9271, 79.8612} {
		t.Fatalf("Colombo view = %+v", v)
	}
	all := g.View(AllDistricts)
	if all.Zoom != 7 {
		t.Fatalf("all view zoom = %d, want 7", all.Zoom)
	}
	if v := g.View("Atlantis"); v != all {
		t.Fatalf("unknown name should fall back to the island view, got %+v", v)
	}
}

func TestIsAll(t *testing.T) {
	if !IsAll(AllDistricts) || !IsAll("") {
		t.Fatal("wildcard not recognised")
	}
	if IsAll("Colombo") {
		t.Fatal("Colombo is not the wildcard")
	}
}

func TestLoadRejectsBadTables(t *testing.T) {
	cases := map[string]string{
		"no version":  "districts: []",
		"short table": "version: 1\nall: {center: [7.8, 80.7], zoom: 7}\ndistricts:\n  - {name: A, bounds: [1, 1, 2, 2], center: [1.5, 1.5], zoom: 10}\n",
		"not yaml":    "version: [",
	}
	for name, data := range cases {
		if _, err := Load([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadRejectsInvertedBox(t *testing.T) {
	data := strings.Replace(string(embeddedTable), "bounds: [6.78, 79.74, 7.05, 80.05]", "bounds: [7.05, 79.74, 6.78, 80.05]", 1)
	if _, err := Load([]byte(data)); err == nil {
		t.Fatal("expected inverted box to be rejected")
	}
}

func TestLoadRejectsDuplicateName(t *testing.T) {
	data := strings.Replace(string(embeddedTable), "name: Gampaha", "name: Colombo", 1)
	if _, err := Load([]byte(data)); err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
}
