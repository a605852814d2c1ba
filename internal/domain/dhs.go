package domain

import (
	"sort"
)

// DHSRecord is one entry of the DHS Program "Data" array. Only the fields
// the pipelines read are kept.
type DHSRecord struct {
	IndicatorID string  `json:"IndicatorId"`
	Indicator   string  `json:"Indicator"`
	SurveyYear  int     `json:"SurveyYear"`
	Value       float64 `json:"Value"`
	IsPreferred int     `json:"IsPreferred"`
}

// Preferred keeps the records flagged IsPreferred == 1.
func Preferred(records []DHSRecord) []DHSRecord {
	var out []DHSRecord
	for _, r := range records {
		if r.IsPreferred == 1 {
			out = append(out, r)
		}
	}
	return out
}

// PivotMean groups records by indicator and survey year and averages
// duplicates. Series follow specs order and are renamed to their column;
// indicators absent from specs are appended sorted by id under their raw id.
// Indicators with no records produce no series.
func PivotMean(records []DHSRecord, specs []IndicatorSpec) []Series {
	type acc struct {
		sum   float64
		count int
	}
	byID := make(map[string]map[int]*acc)
	for _, r := range records {
		years, ok := byID[r.IndicatorID]
		if !ok {
			years = make(map[int]*acc)
			byID[r.IndicatorID] = years
		}
		a, ok := years[r.SurveyYear]
		if !ok {
			a = &acc{}
			years[r.SurveyYear] = a
		}
		a.sum += r.Value
		a.count++
	}

	build := func(id string) Series {
		s := Series{Column: ColumnFor(specs, id), Values: make(map[int]float64, len(byID[id]))}
		for year, a := range byID[id] {
			s.Values[year] = a.sum / float64(a.count)
		}
		return s
	}

	var out []Series
	seen := make(map[string]struct{})
	for _, spec := range specs {
		if _, ok := byID[spec.Code]; !ok {
			continue
		}
		if _, dup := seen[spec.Code]; dup {
			continue
		}
		seen[spec.Code] = struct{}{}
		out = append(out, build(spec.Code))
	}
	extra := make(map[string]struct{})
	for id := range byID {
		if _, ok := seen[id]; !ok {
			extra[id] = struct{}{}
		}
	}
	for _, id := range sortedKeys(extra) {
		out = append(out, build(id))
	}
	return out
}

// IndicatorEntry is one row of the DHS indicator catalog listing.
type IndicatorEntry struct {
	ID   string
	Name string
}

// UniqueIndicators returns the distinct (IndicatorId, Indicator) pairs,
// sorted by name and then id.
func UniqueIndicators(records []DHSRecord) []IndicatorEntry {
	seen := make(map[IndicatorEntry]struct{})
	var out []IndicatorEntry
	for _, r := range records {
		e := IndicatorEntry{ID: r.IndicatorID, Name: r.Indicator}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IndicatorCatalogTable renders the catalog listing.
func IndicatorCatalogTable(name string, entries []IndicatorEntry) Table {
	t := Table{Name: name, Header: []string{"IndicatorId", "Indicator"}}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{e.ID, e.Name})
	}
	return t
}
