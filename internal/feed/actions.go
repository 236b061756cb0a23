// Package feed turns a flat activity list into the date-grouped,
// run-aggregated structure the timeline renders.
package feed

// aggregatableActions lists edit/rename/update style actions that may be
// collapsed when the same author repeats them back to back. Adding an
// action here is the only change needed to make it aggregatable.
var aggregatableActions = map[string]struct{}{
	"goal_editing":                  {},
	"project_renamed":               {},
	"resource_hub_document_edited":  {},
	"resource_hub_file_edited":      {},
	"resource_hub_link_edited":      {},
	"task_title_updated":            {},
	"task_description_updated":      {},
	"milestone_title_updated":       {},
	"milestone_description_updated": {},
}

// IsAggregatable reports whether consecutive activities with this action
// may be collapsed into one aggregated entry. Unknown actions are simply
// not aggregatable.
func IsAggregatable(action string) bool {
	_, ok := aggregatableActions[action]
	return ok
}
