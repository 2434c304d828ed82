// Package report decodes a persisted calculation and renders it for the
// result view.
package report

import "encoding/json"

// Result is the calculation output.
type Result struct {
	WhatWentWell      []string `json:"whatWentWell"`
	WhatCouldBeBetter []string `json:"whatCouldBeBetter"`
	WhatWillNeverWork []string `json:"whatWillNeverWork"`
	WhatWillCompound  []string `json:"whatWillCompound"`
	OperatingRule     string   `json:"operatingRule"`
}

// wireResult accepts both the camelCase and the older snake_case spelling.
type wireResult struct {
	WhatWentWell      []string `json:"whatWentWell"`
	WhatCouldBeBetter []string `json:"whatCouldBeBetter"`
	WhatWillNeverWork []string `json:"whatWillNeverWork"`
	WhatWillCompound  []string `json:"whatWillCompound"`
	OperatingRule     string   `json:"operatingRule"`

	SnakeWentWell      []string `json:"what_went_well"`
	SnakeCouldBeBetter []string `json:"what_could_be_better"`
	SnakeWillNeverWork []string `json:"what_will_never_work"`
	SnakeWillCompound  []string `json:"what_will_compound"`
	SnakeOperatingRule string   `json:"operating_rule"`
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var w wireResult

	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = Result{
		WhatWentWell:      firstList(w.WhatWentWell, w.SnakeWentWell),
		WhatCouldBeBetter: firstList(w.WhatCouldBeBetter, w.SnakeCouldBeBetter),
		WhatWillNeverWork: firstList(w.WhatWillNeverWork, w.SnakeWillNeverWork),
		WhatWillCompound:  firstList(w.WhatWillCompound, w.SnakeWillCompound),
		OperatingRule:     w.OperatingRule,
	}

	if r.OperatingRule == "" {
		r.OperatingRule = w.SnakeOperatingRule
	}

	return nil
}

func firstList(a, b []string) []string {
	if a != nil {
		return a
	}

	return b
}

// Complete reports whether all five fields are populated.
func (r Result) Complete() bool {
	return len(r.WhatWentWell) > 0 &&
		len(r.WhatCouldBeBetter) > 0 &&
		len(r.WhatWillNeverWork) > 0 &&
		len(r.WhatWillCompound) > 0 &&
		r.OperatingRule != ""
}

// Section is a titled list, in display order.
type Section struct {
	Title string
	Items []string
}

// Sections returns the four lists with their headings.
func (r Result) Sections() []Section {
	return []Section{
		{Title: "What went well", Items: r.WhatWentWell},
		{Title: "What could be better", Items: r.WhatCouldBeBetter},
		{Title: "What will never work", Items: r.WhatWillNeverWork},
		{Title: "What will compound", Items: r.WhatWillCompound},
	}
}
