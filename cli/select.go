package cli

import (
	"fmt"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/effort-economics/geocode"
)

// CountryChoices returns "Name (CODE)" labels in natural order and the
// matching codes.
func CountryChoices() ([]string, []string) {
	byLabel := make(map[string]string)
	labels := make([]string, 0, len(geocode.Countries()))

	for _, c := range geocode.Countries() {
		label := fmt.Sprintf("%s (%s)", c.Name, c.Code)
		byLabel[label] = c.Code
		labels = append(labels, label)
	}

	natsort.Sort(labels)

	codes := make([]string, len(labels))
	for i, label := range labels {
		codes[i] = byLabel[label]
	}

	return labels, codes
}

// SelectCountry asks for a country and returns its code. The cursor starts
// on current.
func SelectCountry(p Prompter, current string) (string, error) {
	labels, codes := CountryChoices()

	cursor := 0

	for i, code := range codes {
		if strings.EqualFold(code, current) {
			cursor = i

			break
		}
	}

	idx, err := p.Select("Country", labels, cursor)
	if err != nil {
		return "", err
	}

	if idx < 0 || idx >= len(codes) {
		return "", fmt.Errorf("%w: country index %d", errBadSelection, idx)
	}

	return codes[idx], nil
}

func containsFold(items []string) func(string, int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}

		return strings.Contains(strings.ToLower(items[index]), strings.ToLower(input))
	}
}
