package geocode

import (
	"slices"
	"strings"
)

// Country is an entry of the supported country list.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var countries = []Country{ //nolint:gochecknoglobals
	{Code: "IN", Name: "India"},
	{Code: "US", Name: "United States"},
	{Code: "GB", Name: "United Kingdom"},
	{Code: "AE", Name: "United Arab Emirates"},
	{Code: "SG", Name: "Singapore"},
	{Code: "AU", Name: "Australia"},
	{Code: "CA", Name: "Canada"},
	{Code: "DE", Name: "Germany"},
	{Code: "FR", Name: "France"},
	{Code: "JP", Name: "Japan"},
	{Code: "CN", Name: "China"},
	{Code: "BR", Name: "Brazil"},
	{Code: "MX", Name: "Mexico"},
	{Code: "IT", Name: "Italy"},
	{Code: "ES", Name: "Spain"},
}

// CountryName maps an ISO code to the name used in search queries. Unknown
// codes are returned unchanged.
func CountryName(code string) string {
	upper := strings.ToUpper(strings.TrimSpace(code))

	for _, c := range countries {
		if c.Code == upper {
			return c.Name
		}
	}

	return code
}

// Countries returns a copy of the supported country list in display order.
func Countries() []Country {
	return slices.Clone(countries)
}
