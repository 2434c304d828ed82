package timezone

// BoxRule maps a latitude/longitude rectangle to an IANA zone. Bounds are
// exclusive on every side.
type BoxRule struct {
	Name   string
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
	Zone   string
}

// Contains reports whether the point lies strictly inside the box.
func (b BoxRule) Contains(lat, lon float64) bool {
	return lat > b.MinLat && lat < b.MaxLat && lon > b.MinLon && lon < b.MaxLon
}

// ZoneOffset is a fixed hour offset from UTC for a zone. No DST.
type ZoneOffset struct {
	Zone  string
	Hours float64
}

// FallbackZone is used when no rule matches.
const FallbackZone = "UTC"

// DefaultRules is a coarse, approximate map of the regions the product is
// used in. Order matters; the first matching box wins.
func DefaultRules() []BoxRule {
	return []BoxRule{
		{Name: "india", MinLat: 8, MaxLat: 35, MinLon: 68, MaxLon: 97, Zone: "Asia/Kolkata"},
		{Name: "us-east", MinLat: 25, MaxLat: 48, MinLon: -85, MaxLon: -65, Zone: "America/New_York"},
		{Name: "us-west", MinLat: 32, MaxLat: 49, MinLon: -125, MaxLon: -114, Zone: "America/Los_Angeles"},
		{Name: "uk", MinLat: 50, MaxLat: 60, MinLon: -8, MaxLon: 2, Zone: "Europe/London"},
		{Name: "uae", MinLat: 22, MaxLat: 27, MinLon: 51, MaxLon: 57, Zone: "Asia/Dubai"},
		{Name: "singapore", MinLat: 1, MaxLat: 2, MinLon: 103, MaxLon: 104, Zone: "Asia/Singapore"},
		{Name: "sydney", MinLat: -35, MaxLat: -33, MinLon: 150, MaxLon: 152, Zone: "Australia/Sydney"},
	}
}

// DefaultOffsets lists the standard-time offsets of the supported zones.
func DefaultOffsets() []ZoneOffset {
	return []ZoneOffset{
		{Zone: "Asia/Kolkata", Hours: 5.5},
		{Zone: "Asia/Dubai", Hours: 4},
		{Zone: "Asia/Singapore", Hours: 8},
		{Zone: "Asia/Tokyo", Hours: 9},
		{Zone: "Europe/London", Hours: 0},
		{Zone: "Europe/Paris", Hours: 1},
		{Zone: "America/New_York", Hours: -5},
		{Zone: "America/Chicago", Hours: -6},
		{Zone: "America/Los_Angeles", Hours: -8},
		{Zone: "Australia/Sydney", Hours: 10},
		{Zone: "UTC", Hours: 0},
	}
}

// GuessByBoundingBox returns the zone of the first default rule containing
// the point, or FallbackZone.
func GuessByBoundingBox(lat, lon float64) string {
	return guess(DefaultRules(), lat, lon)
}

// OffsetForZone returns the fixed offset of a default zone, or 0 for an
// unknown one.
func OffsetForZone(zone string) float64 {
	return offset(DefaultOffsets(), zone)
}

func guess(rules []BoxRule, lat, lon float64) string {
	for _, rule := range rules {
		if rule.Contains(lat, lon) {
			return rule.Zone
		}
	}

	return FallbackZone
}

func offset(offsets []ZoneOffset, zone string) float64 {
	for _, o := range offsets {
		if o.Zone == zone {
			return o.Hours
		}
	}

	return 0
}
