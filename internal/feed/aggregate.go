package feed

import (
	"sort"
	"time"

	"example.com/feed/internal/domain"
)

// EntryKind discriminates the two variants of a feed entry.
type EntryKind string

const (
	// EntryActivity marks an entry wrapping a single plain activity.
	EntryActivity EntryKind = "activity"
	// EntryAggregated marks an entry collapsing a run of activities.
	EntryAggregated EntryKind = "aggregated"
)

// AggregatedActivity is the synthetic record produced when a run of two or
// more consecutive activities by the same author with the same
// aggregatable action is collapsed. It exists only for a single feed
// build and is never persisted.
type AggregatedActivity struct {
	ID         string
	Action     string
	Author     domain.Person
	InsertedAt time.Time
	// Activities holds the run members ascending by InsertedAt.
	// Length is at least 2 by construction.
	Activities []domain.Activity
}

// Entry is the tagged union of a plain activity and an aggregated run.
// Exactly one of Activity/Aggregated is set, matching Kind.
type Entry struct {
	Kind       EntryKind
	Activity   *domain.Activity
	Aggregated *AggregatedActivity
}

// AggregateConsecutive scans activities in input order and collapses
// maximal runs sharing author and an aggregatable action. Each element is
// compared to its immediate predecessor, so a run extends only while the
// chain of neighbors keeps matching; two matching activities separated by
// anything else stay separate regardless of timestamps. Single-element
// runs come back as plain entries.
func AggregateConsecutive(activities []domain.Activity) []Entry {
	if len(activities) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(activities))
	run := []domain.Activity{activities[0]}

	for i := 1; i < len(activities); i++ {
		current := activities[i]
		previous := activities[i-1]
		if current.Author.ID == previous.Author.ID &&
			current.Action == previous.Action &&
			IsAggregatable(current.Action) {
			run = append(run, current)
			continue
		}
		entries = append(entries, closeRun(run))
		run = []domain.Activity{current}
	}

	return append(entries, closeRun(run))
}

// closeRun emits a run as either the single member unchanged or one
// aggregated entry. Members are ordered ascending by InsertedAt with a
// stable sort, so exact-timestamp ties keep their input order. The
// synthetic ID and timestamp come from the earliest member.
func closeRun(run []domain.Activity) Entry {
	if len(run) == 1 {
		single := run[0]
		return Entry{Kind: EntryActivity, Activity: &single}
	}

	members := make([]domain.Activity, len(run))
	copy(members, run)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].InsertedAt.Before(members[j].InsertedAt)
	})

	return Entry{
		Kind: EntryAggregated,
		Aggregated: &AggregatedActivity{
			ID:         members[0].ID + "_aggregated",
			Action:     members[0].Action,
			Author:     members[0].Author,
			InsertedAt: members[0].InsertedAt,
			Activities: members,
		},
	}
}
