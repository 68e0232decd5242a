package model

import "time"

// PlanRow is one table access in a normalized EXPLAIN plan. The db layer
// fills this record regardless of driver row shape; the suggestion
// heuristics never see raw result rows. An empty Key means no index was
// chosen for the access.
type PlanRow struct {
	ID           int64  `json:"id"`
	SelectType   string `json:"select_type"`
	Table        string `json:"table"`
	AccessType   string `json:"access_type"`
	PossibleKeys string `json:"possible_keys,omitempty"`
	Key          string `json:"key,omitempty"`
	Rows         int64  `json:"rows"`
	Extra        string `json:"extra,omitempty"`
}

// ProfileStage is one server-reported execution stage from
// SHOW PROFILE FOR QUERY.
type ProfileStage struct {
	Status   string  `json:"status"`
	Duration float64 `json:"duration"` // seconds
}

// ProfileResult is the outcome of profiling a single query. Plan, Stages
// and Suggestions may be empty when the corresponding step failed; the
// result is still usable.
type ProfileResult struct {
	Query         string         `json:"query"`
	ExecutionTime time.Duration  `json:"execution_time"`
	RowsReturned  int            `json:"rows_returned"`
	Stages        []ProfileStage `json:"profile_details"`
	Plan          []PlanRow      `json:"explain_plan"`
	Suggestions   []string       `json:"optimization_suggestions"`
}
