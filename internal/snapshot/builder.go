package snapshot

import (
	"math"
	"sort"
	"time"

	"sheetwatch/internal/reconcile"
	"sheetwatch/internal/station"
	"sheetwatch/internal/submission"
	"sheetwatch/pkg/domain"
)

// Input is one consistent view of the three data sets the builder consumes.
type Input struct {
	Stations    []*station.Station
	Submissions []*submission.Submission
	Tallies     []*reconcile.Tally
}

// Builder turns raw rows into the published artifact. Pure and deterministic:
// every ordering is explicit, so identical input always yields identical
// deterministic fields regardless of how the rows arrived.
type Builder struct {
	// IncludePreliminary keeps non-verified submission rows in the station
	// summaries. The metadata counters are identical either way.
	IncludePreliminary bool
}

type sheetKey struct {
	submissionID string
	sheet        domain.SheetType
}

// Build produces a snapshot from the input set. Provenance is stamped by the
// caller, not here, to keep this function pure.
func (b Builder) Build(in Input) *Snapshot {
	stations := make([]*station.Station, len(in.Stations))
	copy(stations, in.Stations)
	sort.Slice(stations, func(i, j int) bool { return stations[i].ID < stations[j].ID })

	subs := make([]*submission.Submission, len(in.Submissions))
	copy(subs, in.Submissions)
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.Before(subs[j].CreatedAt)
		}
		return subs[i].ID.String() < subs[j].ID.String()
	})

	newest := newestTallies(in.Tallies)

	byStation := make(map[int64][]*submission.Submission)
	for _, sub := range subs {
		byStation[sub.StationID] = append(byStation[sub.StationID], sub)
	}

	snap := &Snapshot{
		Metadata: Metadata{
			TotalStations:      len(stations),
			TotalSubmissions:   len(subs),
			CoverageStatistics: make(map[int64]float64),
		},
		Stations: make([]StationSummary, 0, len(stations)),
	}

	provinceTotals := make(map[int64]*ProvinceCoverage)
	var provinceOrder []int64

	for _, st := range stations {
		stationSubs := byStation[st.ID]
		summary := StationSummary{
			StationID:      st.ID,
			ProvinceID:     st.ProvinceID,
			ConstituencyID: st.ConstituencyID,
			StationNumber:  st.StationNumber,
			Submissions:    []SubmissionSummary{},
		}
		for _, sub := range stationSubs {
			if sub.HasVerifiedSheet() {
				summary.HasVerified = true
			}
			if !sub.HasVerifiedSheet() && !b.IncludePreliminary {
				continue
			}
			summary.Submissions = append(summary.Submissions, SubmissionSummary{
				ID:                 sub.ID.String(),
				CreatedAt:          sub.CreatedAt,
				StatusConstituency: sub.StatusConstituency,
				StatusPartyList:    sub.StatusPartyList,
				VerifiedTallies: VerifiedTallies{
					Constituency: tallyTotal(newest, sub.ID.String(), domain.SheetConstituency),
					PartyList:    tallyTotal(newest, sub.ID.String(), domain.SheetPartyList),
				},
			})
		}
		snap.Stations = append(snap.Stations, summary)

		pc, ok := provinceTotals[st.ProvinceID]
		if !ok {
			pc = &ProvinceCoverage{ProvinceID: st.ProvinceID, ProvinceName: st.ProvinceName}
			provinceTotals[st.ProvinceID] = pc
			provinceOrder = append(provinceOrder, st.ProvinceID)
		}
		pc.TotalStations++
		if summary.HasVerified {
			pc.CoveredStations++
		}
	}

	sort.Slice(provinceOrder, func(i, j int) bool { return provinceOrder[i] < provinceOrder[j] })
	snap.Provinces = make([]ProvinceCoverage, 0, len(provinceOrder))
	for _, id := range provinceOrder {
		pc := provinceTotals[id]
		if pc.TotalStations > 0 {
			pc.CoveragePercent = round2(float64(pc.CoveredStations) / float64(pc.TotalStations) * 100)
		}
		snap.Metadata.CoverageStatistics[id] = pc.CoveragePercent
		snap.Provinces = append(snap.Provinces, *pc)
	}

	var lastVerified *time.Time
	for _, sub := range subs {
		verified := sub.StatusConstituency == domain.StatusVerified || sub.StatusPartyList == domain.StatusVerified
		pending := sub.StatusConstituency == domain.StatusPending || sub.StatusPartyList == domain.StatusPending
		disputed := sub.StatusConstituency == domain.StatusDisputed || sub.StatusPartyList == domain.StatusDisputed
		if verified {
			snap.Metadata.VerifiedSubmissions++
			t := sub.CreatedAt
			// subs are sorted by (created_at, id), so the last verified one
			// seen is the newest with a stable tie-break.
			lastVerified = &t
		}
		if pending {
			snap.Metadata.PendingReview++
		}
		if disputed {
			snap.Metadata.DisputedCount++
		}
	}
	snap.Metadata.LastVerifiedAt = lastVerified

	return snap
}

// newestTallies resolves the most recent tally per (submission, sheet) with
// (created_at, id) ordering.
func newestTallies(tallies []*reconcile.Tally) map[sheetKey]*reconcile.Tally {
	newest := make(map[sheetKey]*reconcile.Tally)
	for _, t := range tallies {
		key := sheetKey{submissionID: t.SubmissionID.String(), sheet: t.SheetType}
		cur, ok := newest[key]
		if !ok || tallyAfter(t, cur) {
			newest[key] = t
		}
	}
	return newest
}

func tallyAfter(a, b *reconcile.Tally) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}

func tallyTotal(newest map[sheetKey]*reconcile.Tally, submissionID string, sheet domain.SheetType) *int64 {
	t, ok := newest[sheetKey{submissionID: submissionID, sheet: sheet}]
	if !ok {
		return nil
	}
	total, ok := t.Total()
	if !ok {
		return nil
	}
	return &total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
