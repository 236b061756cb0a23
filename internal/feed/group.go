package feed

import (
	"errors"
	"fmt"
	"time"

	"example.com/feed/internal/domain"
)

// ErrMissingTimestamp is returned when an activity reaches the grouper
// without an InsertedAt value. Grouping on a zero time would silently
// open a spurious bucket, so the engine refuses instead.
var ErrMissingTimestamp = errors.New("activity has no inserted_at timestamp")

// ActivityGroup is one calendar-day bucket of the feed, in scan order.
type ActivityGroup struct {
	// Date is midnight of the bucket's day, taken from the first
	// activity encountered for that day.
	Date    time.Time
	Entries []Entry
}

// GroupByDate partitions activities into calendar-day buckets in the
// order days appear in the input, then collapses consecutive runs inside
// each bucket. It is the single entry point feed rendering consumes.
//
// A new bucket opens whenever the day differs from the immediately
// preceding activity's day. Buckets never re-merge: if the input
// revisits an earlier day, that day gets a second bucket. Day equality
// is year/month/day of the timestamp in its own location, not a rolling
// 24-hour window.
func GroupByDate(activities []domain.Activity) ([]ActivityGroup, error) {
	type bucket struct {
		date       time.Time
		activities []domain.Activity
	}

	buckets := make([]*bucket, 0)
	var current *bucket

	for _, activity := range activities {
		if activity.InsertedAt.IsZero() {
			return nil, fmt.Errorf("%w: activity %s", ErrMissingTimestamp, activity.ID)
		}
		if current == nil || !sameCalendarDay(current.date, activity.InsertedAt) {
			current = &bucket{date: midnight(activity.InsertedAt)}
			buckets = append(buckets, current)
		}
		current.activities = append(current.activities, activity)
	}

	groups := make([]ActivityGroup, 0, len(buckets))
	for _, b := range buckets {
		groups = append(groups, ActivityGroup{
			Date:    b.date,
			Entries: AggregateConsecutive(b.activities),
		})
	}
	return groups, nil
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
