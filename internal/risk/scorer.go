package risk

import (
	"math"
	"sort"

	"sheetwatch/internal/reconcile"
	"sheetwatch/internal/report"
	"sheetwatch/internal/submission"
	"sheetwatch/pkg/domain"
)

// Fixed signal weights. The sum is capped at 100.
const (
	weightSealMismatch         = 25
	weightMissingPostedForm    = 20
	weightChecksumMismatch     = 20
	weightAbnormalInvalidRatio = 15
)

// Leverage tier thresholds.
const (
	thresholdHigh   = 60
	thresholdMedium = 30
)

// StationInput is everything the scorer reads for one station. Tallies are
// keyed by submission id and carry every transcription for that submission.
type StationInput struct {
	StationID   int64
	Submissions []*submission.Submission
	Incidents   []*report.IncidentReport
	Custody     []*report.CustodyEvent
	Tallies     map[string][]*reconcile.Tally
}

// ScoreStation computes the risk view for one station. Pure: same input,
// same output.
func ScoreStation(in StationInput) *StationRisk {
	signals := Signals{
		SealMismatch:      hasSealMismatch(in.Custody),
		MissingPostedForm: hasMissingPostedForm(in.Incidents),
		ChecksumMismatch:  hasChecksumMismatch(in.Submissions, in.Tallies),
		// Placeholder until invalid/no-vote tallies are ingested.
		AbnormalInvalidRatio: false,
	}

	score := 0
	var reasons []string
	if signals.SealMismatch {
		score += weightSealMismatch
		reasons = append(reasons, "ballot box seal broken, mismatched, or inspected before opening")
	}
	if signals.MissingPostedForm {
		score += weightMissingPostedForm
		reasons = append(reasons, "vote-count form not posted, removed, or counting obstructed")
	}
	if signals.ChecksumMismatch {
		score += weightChecksumMismatch
		reasons = append(reasons, "citizen checksum disagrees with reviewer tally total")
	}
	if signals.AbnormalInvalidRatio {
		score += weightAbnormalInvalidRatio
		reasons = append(reasons, "abnormal invalid-ballot ratio")
	}
	if score > 100 {
		score = 100
	}

	return &StationRisk{
		StationID: in.StationID,
		Signals:   signals,
		Score:     score,
		Leverage:  tierFor(score),
		Reasons:   reasons,
	}
}

// AggregateConstituency rolls station risk up to constituency level.
func AggregateConstituency(constituencyID int64, stations []*StationRisk) *ConstituencyRisk {
	agg := &ConstituencyRisk{
		ConstituencyID: constituencyID,
		TotalStations:  len(stations),
	}
	clean := 0
	for _, st := range stations {
		switch st.Leverage {
		case TierHigh:
			agg.HighCount++
		case TierMedium:
			agg.MediumCount++
		default:
			agg.LowCount++
		}
		if st.Score == 0 {
			clean++
		}
	}
	if agg.TotalStations > 0 {
		agg.CoveragePercent = round2(float64(clean) / float64(agg.TotalStations) * 100)
	}
	return agg
}

func tierFor(score int) Tier {
	switch {
	case score >= thresholdHigh:
		return TierHigh
	case score >= thresholdMedium:
		return TierMedium
	default:
		return TierLow
	}
}

func hasSealMismatch(custody []*report.CustodyEvent) bool {
	for _, c := range custody {
		if c.Type == report.CustodySealBrokenOrMismatch || c.Type == report.CustodySealIntactBeforeOpen {
			return true
		}
	}
	return false
}

func hasMissingPostedForm(incidents []*report.IncidentReport) bool {
	for _, i := range incidents {
		if i.Type == report.IncidentFormNotPosted || i.Type == report.IncidentCountingObstructed {
			return true
		}
	}
	return false
}

// hasChecksumMismatch reports whether any sheet's citizen checksum disagrees
// with the newest reviewer tally total for that sheet.
func hasChecksumMismatch(subs []*submission.Submission, tallies map[string][]*reconcile.Tally) bool {
	for _, sub := range subs {
		for _, sheet := range domain.SheetTypes() {
			checksum := sub.Checksum(sheet)
			if checksum == nil {
				continue
			}
			tally := newestTally(tallies[sub.ID.String()], sheet)
			if tally == nil {
				continue
			}
			total, ok := tally.Total()
			if ok && total != *checksum {
				return true
			}
		}
	}
	return false
}

func newestTally(tallies []*reconcile.Tally, sheet domain.SheetType) *reconcile.Tally {
	var matching []*reconcile.Tally
	for _, t := range tallies {
		if t.SheetType == sheet {
			matching = append(matching, t)
		}
	}
	if len(matching) == 0 {
		return nil
	}
	sort.Slice(matching, func(i, j int) bool {
		if !matching[i].CreatedAt.Equal(matching[j].CreatedAt) {
			return matching[i].CreatedAt.Before(matching[j].CreatedAt)
		}
		return matching[i].ID.String() < matching[j].ID.String()
	})
	return matching[len(matching)-1]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
