package reconcile

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sheetwatch/internal/audit"
	"sheetwatch/internal/submission"
	"sheetwatch/pkg/domain"
	dErrors "sheetwatch/pkg/domain-errors"
)

type ReconcileServiceSuite struct {
	suite.Suite
	svc         *Service
	submissions *submission.InMemoryStore
	tallies     *InMemoryTallyStore
	logStore    *InMemoryLogStore
	auditStore  *audit.InMemoryStore
	ctx         context.Context
}

func TestReconcileServiceSuite(t *testing.T) {
	suite.Run(t, new(ReconcileServiceSuite))
}

func (s *ReconcileServiceSuite) SetupTest() {
	s.submissions = submission.NewInMemoryStore()
	s.tallies = NewInMemoryTallyStore()
	s.logStore = NewInMemoryLogStore()
	s.auditStore = audit.NewInMemoryStore()
	s.svc = NewService(s.submissions, s.tallies, s.logStore,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(audit.NewStorePublisher(s.auditStore)))
	s.ctx = context.Background()
}

func strPtr(v string) *string { return &v }
func intPtr(v int64) *int64   { return &v }

func actionPtr(a domain.ReviewAction) *domain.ReviewAction { return &a }

func (s *ReconcileServiceSuite) seedSubmission(checksum *int64) *submission.Submission {
	sub := &submission.Submission{
		ID:                        uuid.New(),
		StationID:                 42,
		StatusConstituency:        domain.StatusPending,
		StatusPartyList:           domain.StatusMissing,
		PhotoConstituencyKey:      strPtr("photos/c.jpg"),
		ChecksumConstituencyTotal: checksum,
	}
	s.Require().NoError(s.submissions.Insert(s.ctx, sub))
	return sub
}

func (s *ReconcileServiceSuite) TestChecksumMatchAutoVerifies() {
	sub := s.seedSubmission(intPtr(534))

	res, err := s.svc.Reconcile(s.ctx, Request{
		SubmissionID: sub.ID,
		ReviewerID:   strPtr("rev-1"),
		SheetType:    domain.SheetConstituency,
		ScoreMap:     map[string]int64{"cand_1": 300, "cand_2": 234, ScoreKeyTotalValid: 534},
	})
	s.Require().NoError(err)

	s.True(res.AutoVerified)
	s.Equal(domain.StatusVerified, res.Status)

	got, err := s.submissions.Get(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusVerified, got.StatusConstituency)

	entries, err := s.svc.LogForSubmission(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(domain.LogAutoVerified, entries[0].Action)
	s.Equal(int64(534), entries[0].Details.ComputedTotal)
	s.True(entries[0].Details.ChecksumMatch)
}

func (s *ReconcileServiceSuite) TestChecksumMismatchStaysPending() {
	sub := s.seedSubmission(intPtr(534))

	res, err := s.svc.Reconcile(s.ctx, Request{
		SubmissionID: sub.ID,
		SheetType:    domain.SheetConstituency,
		ScoreMap:     map[string]int64{ScoreKeyTotalValid: 500},
	})
	s.Require().NoError(err)

	s.False(res.AutoVerified)
	s.Equal(domain.StatusPending, res.Status)

	entries, err := s.svc.LogForSubmission(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(domain.LogPendingReview, entries[0].Action)
	s.False(entries[0].Details.ChecksumMatch)
}

func (s *ReconcileServiceSuite) TestNoChecksumNeverAutoVerifies() {
	sub := s.seedSubmission(nil)

	res, err := s.svc.Reconcile(s.ctx, Request{
		SubmissionID: sub.ID,
		SheetType:    domain.SheetConstituency,
		ScoreMap:     map[string]int64{ScoreKeyTotalValid: 534},
	})
	s.Require().NoError(err)

	s.False(res.AutoVerified, "no checksum means no auto-verification")
	s.Equal(domain.StatusPending, res.Status)
}

func (s *ReconcileServiceSuite) TestTotalFallback() {
	sub := s.seedSubmission(intPtr(500))

	// No total_valid key; the plain total carries the comparison.
	res, err := s.svc.Reconcile(s.ctx, Request{
		SubmissionID: sub.ID,
		SheetType:    domain.SheetConstituency,
		ScoreMap:     map[string]int64{ScoreKeyTotal: 500},
	})
	s.Require().NoError(err)

	s.True(res.AutoVerified)
	s.Equal(domain.StatusVerified, res.Status)

	entries, err := s.svc.LogForSubmission(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(domain.LogAutoVerified, entries[0].Action)
}

func (s *ReconcileServiceSuite) TestExplicitActionOverridesChecksum() {
	cases := []struct {
		name      string
		action    domain.ReviewAction
		status    domain.SheetStatus
		logAction domain.LogAction
	}{
		{"verify wins over mismatch", domain.ActionVerify, domain.StatusVerified, domain.LogManualVerify},
		{"reject_quality wins over match", domain.ActionRejectQuality, domain.StatusRejected, domain.LogRejectQuality},
		{"reject_mismatch", domain.ActionRejectMismatch, domain.StatusRejected, domain.LogRejectMismatch},
		{"dispute wins over match", domain.ActionDispute, domain.StatusDisputed, domain.LogDispute},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			sub := s.seedSubmission(intPtr(534))

			// Match for some cases, mismatch for others; the explicit action
			// must decide regardless.
			total := int64(534)
			if tc.action == domain.ActionVerify {
				total = 500
			}

			res, err := s.svc.Reconcile(s.ctx, Request{
				SubmissionID: sub.ID,
				ReviewerID:   strPtr("rev-2"),
				SheetType:    domain.SheetConstituency,
				ScoreMap:     map[string]int64{ScoreKeyTotalValid: total},
				Action:       actionPtr(tc.action),
			})
			s.Require().NoError(err)
			s.Equal(tc.status, res.Status)

			entries, err := s.svc.LogForSubmission(s.ctx, sub.ID)
			s.Require().NoError(err)
			s.Require().Len(entries, 1)
			s.Equal(tc.logAction, entries[0].Action)
		})
	}
}

func (s *ReconcileServiceSuite) TestDisputedCanBeResolvedByVerify() {
	sub := s.seedSubmission(intPtr(534))

	_, err := s.svc.Reconcile(s.ctx, Request{
		SubmissionID: sub.ID,
		SheetType:    domain.SheetConstituency,
		ScoreMap:     map[string]int64{ScoreKeyTotalValid: 534},
		Action:       actionPtr(domain.ActionDispute),
	})
	s.Require().NoError(err)

	// Re-read for the bumped version, then resolve the dispute.
	got, err := s.submissions.Get(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusDisputed, got.StatusConstituency)

	res, err := s.svc.Reconcile(s.ctx, Request{
		SubmissionID: got.ID,
		ReviewerID:   strPtr("senior-1"),
		SheetType:    domain.SheetConstituency,
		ScoreMap:     map[string]int64{ScoreKeyTotalValid: 534},
		Action:       actionPtr(domain.ActionVerify),
	})
	s.Require().NoError(err)
	s.Equal(domain.StatusVerified, res.Status)
}

// conflictingStore simulates a concurrent writer landing between the
// engine's read and its status update.
type conflictingStore struct {
	*submission.InMemoryStore
	sheet domain.SheetType
}

func (c *conflictingStore) Get(ctx context.Context, id uuid.UUID) (*submission.Submission, error) {
	sub, err := c.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.InMemoryStore.UpdateStatus(ctx, id, c.sheet, domain.StatusVerified, sub.Version); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *ReconcileServiceSuite) TestConcurrentReviewerLoses() {
	sub := s.seedSubmission(intPtr(534))

	racing := &conflictingStore{InMemoryStore: s.submissions, sheet: domain.SheetConstituency}
	svc := NewService(racing, s.tallies, s.logStore,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := svc.Reconcile(s.ctx, Request{
		SubmissionID: sub.ID,
		SheetType:    domain.SheetConstituency,
		ScoreMap:     map[string]int64{ScoreKeyTotalValid: 500},
		Action:       actionPtr(domain.ActionRejectMismatch),
	})
	s.True(dErrors.Is(err, dErrors.CodeConflict))

	got, err := s.submissions.Get(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusVerified, got.StatusConstituency, "first writer's decision survives")

	tallies, terr := s.svc.TalliesForSubmission(s.ctx, sub.ID)
	s.Require().NoError(terr)
	s.Len(tallies, 1, "the losing tally stays on record as evidence")

	entries, lerr := s.svc.LogForSubmission(s.ctx, sub.ID)
	s.Require().NoError(lerr)
	s.Empty(entries, "no log entry for a rejected status change")
}

func (s *ReconcileServiceSuite) TestMalformedScoreMapLeavesNoTrace() {
	sub := s.seedSubmission(intPtr(534))

	cases := []struct {
		name     string
		scoreMap map[string]int64
	}{
		{"nil score map", nil},
		{"missing total keys", map[string]int64{"cand_1": 10}},
		{"negative total_valid", map[string]int64{ScoreKeyTotalValid: -1}},
		{"negative total", map[string]int64{ScoreKeyTotal: -5}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.Reconcile(s.ctx, Request{
				SubmissionID: sub.ID,
				SheetType:    domain.SheetConstituency,
				ScoreMap:     tc.scoreMap,
			})
			s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
		})
	}

	tallies, err := s.svc.TalliesForSubmission(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Empty(tallies, "rejected tallies must not be persisted")

	entries, err := s.svc.LogForSubmission(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ReconcileServiceSuite) TestMissingSheetRejectsTally() {
	sub := s.seedSubmission(intPtr(534))

	// The partylist sheet was never photographed.
	_, err := s.svc.Reconcile(s.ctx, Request{
		SubmissionID: sub.ID,
		ReviewerID:   strPtr("rev-1"),
		SheetType:    domain.SheetPartyList,
		ScoreMap:     map[string]int64{ScoreKeyTotalValid: 100},
	})
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))

	got, gerr := s.submissions.Get(s.ctx, sub.ID)
	s.Require().NoError(gerr)
	s.Equal(domain.StatusMissing, got.StatusPartyList, "a photo-less sheet stays missing")
	s.Nil(got.PhotoPartyListKey)

	tallies, terr := s.svc.TalliesForSubmission(s.ctx, sub.ID)
	s.Require().NoError(terr)
	s.Empty(tallies, "no tally is recorded against a missing sheet")
}

func (s *ReconcileServiceSuite) TestUnknownSubmission() {
	_, err := s.svc.Reconcile(s.ctx, Request{
		SubmissionID: uuid.New(),
		SheetType:    domain.SheetConstituency,
		ScoreMap:     map[string]int64{ScoreKeyTotalValid: 1},
	})
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ReconcileServiceSuite) TestInvalidSheetTypeAndAction() {
	sub := s.seedSubmission(intPtr(534))

	_, err := s.svc.Reconcile(s.ctx, Request{
		SubmissionID: sub.ID,
		SheetType:    "ballot",
		ScoreMap:     map[string]int64{ScoreKeyTotalValid: 1},
	})
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))

	bad := domain.ReviewAction("approve")
	_, err = s.svc.Reconcile(s.ctx, Request{
		SubmissionID: sub.ID,
		SheetType:    domain.SheetConstituency,
		ScoreMap:     map[string]int64{ScoreKeyTotalValid: 1},
		Action:       &bad,
	})
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
}

func (s *ReconcileServiceSuite) TestAuditEventEmitted() {
	sub := s.seedSubmission(intPtr(534))

	_, err := s.svc.Reconcile(s.ctx, Request{
		SubmissionID: sub.ID,
		ReviewerID:   strPtr("rev-1"),
		SheetType:    domain.SheetConstituency,
		ScoreMap:     map[string]int64{ScoreKeyTotalValid: 534},
	})
	s.Require().NoError(err)

	events := s.auditStore.All()
	s.Require().Len(events, 1)
	s.Equal(audit.EventStatusChanged, events[0].Action)
	s.Equal(sub.ID.String(), events[0].SubmissionID)
	s.Equal(int64(42), events[0].StationID)
	s.Equal(string(domain.LogAutoVerified), events[0].Details)
}

func (s *ReconcileServiceSuite) TestEveryTallyIsKept() {
	sub := s.seedSubmission(intPtr(534))

	for _, total := range []int64{500, 534} {
		_, err := s.svc.Reconcile(s.ctx, Request{
			SubmissionID: sub.ID,
			SheetType:    domain.SheetConstituency,
			ScoreMap:     map[string]int64{ScoreKeyTotalValid: total},
		})
		s.Require().NoError(err)
	}

	tallies, err := s.svc.TalliesForSubmission(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Len(tallies, 2, "corrections append, never overwrite")
	s.False(tallies[0].AutoVerified)
	s.True(tallies[1].AutoVerified)
}
