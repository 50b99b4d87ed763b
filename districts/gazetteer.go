package districts

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// Unknown is the classification for points outside every district box.
	Unknown = "Unknown"
	// AllDistricts is the UI wildcard. The classifier never returns it.
	AllDistricts = "All Districts"

	districtCount = 25
)

//go:embed districts.yaml
var embeddedTable []byte

// BoundingBox is an axis-aligned box in WGS84 degrees.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLng float64 `json:"minLng"`
	MaxLat float64 `json:"maxLat"`
	MaxLng float64 `json:"maxLng"`
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// MapView is where the dashboard map centres when a district is selected.
type MapView struct {
	Center [2]float64 `json:"center"`
	Zoom   int        `json:"zoom"`
}

type District struct {
	Name   string      `json:"name"`
	Bounds BoundingBox `json:"bounds"`
	View   MapView     `json:"view"`
}

// Gazetteer is the single district table shared by filtering and notification routing.
// It is immutable once loaded.
type Gazetteer struct {
	version   int
	districts []District
	byName    map[string]int
	allView   MapView
}

type tableFile struct {
	Version   int          `yaml:"version"`
	All       viewEntry    `yaml:"all"`
	Districts []tableEntry `yaml:"districts"`
}

type viewEntry struct {
	Center []float64 `yaml:"center"`
	Zoom   int       `yaml:"zoom"`
}

type tableEntry struct {
	Name   string    `yaml:"name"`
	Bounds []float64 `yaml:"bounds"`
	Center []float64 `yaml:"center"`
	Zoom   int       `yaml:"zoom"`
}

var (
	defaultGazetteer *Gazetteer
	defaultOnce      sync.Once
)

// Default returns the embedded gazetteer. A corrupt embedded table is a build defect, so it panics.
func Default() *Gazetteer {
	defaultOnce.Do(func() {
		g, err := Load(embeddedTable)
		if err != nil {
			panic(fmt.Sprintf("districts: embedded table: %v", err))
		}
		defaultGazetteer = g
	})
	return defaultGazetteer
}

// Load parses and validates a gazetteer table.
func Load(data []byte) (*Gazetteer, error) {
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse district table: %w", err)
	}
	if tf.Version <= 0 {
		return nil, fmt.Errorf("district table has no version")
	}
	if len(tf.Districts) != districtCount {
		return nil, fmt.Errorf("district table has %d entries, want %d", len(tf.Districts), districtCount)
	}

	allView, err := toView(tf.All.Center, tf.All.Zoom)
	if err != nil {
		return nil, fmt.Errorf("all districts view: %w", err)
	}

	g := &Gazetteer{
		version:   tf.Version,
		districts: make([]District, 0, len(tf.Districts)),
		byName:    make(map[string]int, len(tf.Districts)),
		allView:   allView,
	}
	for i, e := range tf.Districts {
		if e.Name == "" || e.Name == Unknown || e.Name == AllDistricts {
			return nil, fmt.Errorf("entry %d: invalid name %q", i, e.Name)
		}
		if _, dup := g.byName[e.Name]; dup {
			return nil, fmt.Errorf("entry %d: duplicate district %q", i, e.Name)
		}
		box, err := toBox(e.Bounds)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
		view, err := toView(e.Center, e.Zoom)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
		g.byName[e.Name] = len(g.districts)
		g.districts = append(g.districts, District{Name: e.Name, Bounds: box, View: view})
	}
	return g, nil
}

func toBox(b []float64) (BoundingBox, error) {
	if len(b) != 4 {
		return BoundingBox{}, fmt.Errorf("bounds need 4 values, got %d", len(b))
	}
	box := BoundingBox{MinLat: b[0], MinLng: b[1], MaxLat: b[2], MaxLng: b[3]}
	if !validLat(box.MinLat) || !validLat(box.MaxLat) || !validLng(box.MinLng) || !validLng(box.MaxLng) {
		return BoundingBox{}, fmt.Errorf("bounds %v outside WGS84 range", b)
	}
	if box.MinLat > box.MaxLat || box.MinLng > box.MaxLng {
		return BoundingBox{}, fmt.Errorf("bounds %v have min greater than max", b)
	}
	return box, nil
}

func toView(center []float64, zoom int) (MapView, error) {
	if len(center) != 2 {
		return MapView{}, fmt.Errorf("center needs 2 values, got %d", len(center))
	}
	if !validLat(center[0]) || !validLng(center[1]) {
		return MapView{}, fmt.Errorf("center %v outside WGS84 range", center)
	}
	if zoom <= 0 {
		return MapView{}, fmt.Errorf("zoom must be positive")
	}
	return MapView{Center: [2]float64{center[0], center[1]}, Zoom: zoom}, nil
}

func validLat(v float64) bool { return v >= -90 && v <= 90 }
func validLng(v float64) bool { return v >= -180 && v <= 180 }

func (g *Gazetteer) Version() int { return g.version }

// Districts returns the table in classification order.
func (g *Gazetteer) Districts() []District {
	out := make([]District, len(g.districts))
	copy(out, g.districts)
	return out
}

func (g *Gazetteer) Names() []string {
	names := make([]string, len(g.districts))
	for i, d := range g.districts {
		names[i] = d.Name
	}
	return names
}

func (g *Gazetteer) Lookup(name string) (District, bool) {
	i, ok := g.byName[name]
	if !ok {
		return District{}, false
	}
	return g.districts[i], true
}

// View returns the map view for a district, or the whole-island view for the wildcard and unknown names.
func (g *Gazetteer) View(name string) MapView {
	if d, ok := g.Lookup(name); ok {
		return d.View
	}
	return g.allView
}

// IsAll reports whether name selects every district.
func IsAll(name string) bool {
	return name == "" || name == AllDistricts
}
