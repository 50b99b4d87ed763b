package districts

// Classify maps a coordinate to the first district, in table order, whose box contains it.
// Points outside every box are Unknown. Overlapping boxes are a known approximation of the
// real district shapes; the earlier entry wins.
func (g *Gazetteer) Classify(lat, lng float64) string {
	for _, d := range g.districts {
		if d.Bounds.Contains(lat, lng) {
			return d.Name
		}
	}
	return Unknown
}

// Matches returns every district whose box contains the point, in table order.
// More than one entry means the point sits in an overlap.
func (g *Gazetteer) Matches(lat, lng float64) []string {
	var out []string
	for _, d := range g.districts {
		if d.Bounds.Contains(lat, lng) {
			out = append(out, d.Name)
		}
	}
	return out
}
