package abuse

// Action is the recommended response to an identity's activity pattern.
// Advisory only: nothing in this package enforces a block.
type Action string

const (
	ActionNone           Action = "none"
	ActionReview         Action = "review"
	ActionTempBlock      Action = "temp_block"
	ActionPermanentBlock Action = "permanent_block"
)

// Action thresholds.
const (
	thresholdPermanentBlock = 70
	thresholdTempBlock      = 50
	thresholdReview         = 30
)

// Activity is one identity's observed counts inside the scoring window.
type Activity struct {
	Submissions     int `json:"submissions"`
	UniqueStations  int `json:"unique_stations"`
	CustodyEvents   int `json:"custody_events"`
	IncidentReports int `json:"incident_reports"`

	// SealIncidents counts incident reports of the seal-mismatch type, a
	// subset of IncidentReports.
	SealIncidents int `json:"seal_incidents"`
}

// Assessment is the scored result for one identity.
type Assessment struct {
	IdentityHash string   `json:"identity_hash"`
	Score        int      `json:"score"`
	Action       Action   `json:"recommended_action"`
	Reasons      []string `json:"reasons"`
	Activity     Activity `json:"activity"`
}

// NeedsBlock reports whether the recommendation is a blocking action.
// Enforcement stays an explicit, externally-triggered step.
func (a *Assessment) NeedsBlock() bool {
	return a.Action == ActionTempBlock || a.Action == ActionPermanentBlock
}

// Score rates one identity's activity. Additive rules, capped at 100; pure
// so the same window of activity always scores the same.
func Score(activity Activity) *Assessment {
	score := 0
	var reasons []string

	switch {
	case activity.Submissions > 10:
		score += 30
		reasons = append(reasons, "more than 10 submissions in window")
	case activity.Submissions > 5:
		score += 15
		reasons = append(reasons, "more than 5 submissions in window")
	}

	if activity.UniqueStations > 0 && float64(activity.Submissions)/float64(activity.UniqueStations) > 2 {
		score += 20
		reasons = append(reasons, "submissions concentrated on few stations")
	}

	if activity.CustodyEvents > 10 {
		score += 15
		reasons = append(reasons, "more than 10 custody events in window")
	}
	if activity.IncidentReports > 10 {
		score += 15
		reasons = append(reasons, "more than 10 incident reports in window")
	}
	if activity.SealIncidents > 5 {
		score += 10
		reasons = append(reasons, "more than 5 seal-mismatch incidents in window")
	}

	if score > 100 {
		score = 100
	}

	return &Assessment{
		Score:    score,
		Action:   actionFor(score),
		Reasons:  reasons,
		Activity: activity,
	}
}

func actionFor(score int) Action {
	switch {
	case score >= thresholdPermanentBlock:
		return ActionPermanentBlock
	case score >= thresholdTempBlock:
		return ActionTempBlock
	case score >= thresholdReview:
		return ActionReview
	default:
		return ActionNone
	}
}
