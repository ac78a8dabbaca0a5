package models

import "time"

// LeadReport is the digest mailed after a scheduled run.
type LeadReport struct {
	Date      time.Time    `json:"date"`
	Runs      []*RunResult `json:"runs"`
	Found     int          `json:"total_found"`
	Analyzed  int          `json:"analyzed"`
	Qualified int          `json:"qualified"`
}

// NewLeadReport aggregates the counters of all runs in the report.
func NewLeadReport(date time.Time, runs []*RunResult) *LeadReport {
	report := &LeadReport{Date: date, Runs: runs}
	for _, run := range runs {
		report.Found += run.Summary.TotalFound
		report.Analyzed += run.Summary.Analyzed
		report.Qualified += run.Summary.Qualified
	}
	return report
}
