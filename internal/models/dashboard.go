package models

// SectionStatus describes how a dashboard slot settled
type SectionStatus string

const (
	SectionReady SectionStatus = "ready"
	// SectionFailed means the upstream call for the slot failed
	SectionFailed SectionStatus = "failed"
	// SectionSkipped means the slot was intentionally not fetched (e.g. too few liked titles)
	SectionSkipped SectionStatus = "skipped"
	// SectionUnavailable means recommendations could not be retrieved; the rest of the dashboard is unaffected
	SectionUnavailable SectionStatus = "unavailable"
)

// Section is one slot of the dashboard
type Section[T any] struct {
	Items  []T           `json:"items"`
	Status SectionStatus `json:"status"`
	Err    error         `json:"-"`
}

// ReadySection returns a populated slot
func ReadySection[T any](items []T) Section[T] {
	if items == nil {
		items = []T{}
	}
	return Section[T]{Items: items, Status: SectionReady}
}

// FailedSection returns an empty slot marked with status and err
func FailedSection[T any](status SectionStatus, err error) Section[T] {
	return Section[T]{Items: []T{}, Status: status, Err: err}
}

// DashboardView is the merged result of one dashboard load
type DashboardView struct {
	Trending        Section[MediaSummary] `json:"trending"`
	Upcoming        Section[MediaSummary] `json:"upcoming"`
	PopularTV       Section[MediaSummary] `json:"popular_tv"`
	Watchlist       Section[MediaDetail]  `json:"watchlist"`
	Recommendations Section[MediaDetail]  `json:"recommendations"`
}

// WatchlistByKind returns resolved watchlist items of one kind, preserving order
func (v *DashboardView) WatchlistByKind(kind MediaKind) []MediaDetail {
	var out []MediaDetail
	for _, d := range v.Watchlist.Items {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
