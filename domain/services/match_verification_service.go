package services

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"royalwager/domain/entities"
	"royalwager/domain/wagererr"
)

const (
	seriesLength = 3
	winsRequired = 2
)

// VerificationPolicy holds the timing rules for best-of-3 adjudication
type VerificationPolicy struct {
	ActivationBuffer time.Duration
	Timeout          time.Duration
}

// DefaultVerificationPolicy is a 1 second activation buffer and a 60 minute stuck-match timeout
func DefaultVerificationPolicy() VerificationPolicy {
	return VerificationPolicy{
		ActivationBuffer: time.Second,
		Timeout:          60 * time.Minute,
	}
}

// MatchVerificationService evaluates a best-of-3 series from normalized match history.
// It does no I/O; callers fetch the matches and apply the result.
type MatchVerificationService struct {
	policy VerificationPolicy
}

// NewMatchVerificationService creates a new MatchVerificationService
func NewMatchVerificationService(policy VerificationPolicy) *MatchVerificationService {
	return &MatchVerificationService{policy: policy}
}

// Policy returns the timing rules in use
func (s *MatchVerificationService) Policy() VerificationPolicy {
	return s.policy
}

// QualifyingMatches keeps matches after activation plus the buffer, played between the two tags, in fetch order
func (s *MatchVerificationService) QualifyingMatches(matches []entities.MatchRecord, activatedAt time.Time, creatorTag, opponentTag string) []entities.MatchRecord {
	cutoff := activatedAt.Add(s.policy.ActivationBuffer)
	qualifying := make([]entities.MatchRecord, 0, len(matches))
	for _, m := range matches {
		if !m.OccurredAt.After(cutoff) {
			continue
		}
		if !hasTag(m.OpponentTags, opponentTag) {
			continue
		}
		if m.SelfTag != "" && !TagsEqual(m.SelfTag, creatorTag) {
			continue
		}
		qualifying = append(qualifying, m)
	}
	return qualifying
}

// Evaluate computes the series state for an ACTIVE wager from the creator's match history
func (s *MatchVerificationService) Evaluate(w *entities.Wager, creatorTag, opponentTag string, matches []entities.MatchRecord, now time.Time) (*entities.VerificationResult, error) {
	if w.Status != entities.WagerStatusActive {
		return nil, wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, only ACTIVE wagers can be verified", w.ID, w.Status)
	}
	if w.ActivatedAt == nil {
		return nil, wagererr.New(wagererr.CodeInvalidState, "wager %d has no activation time", w.ID)
	}
	if !w.HasOpponent() {
		return nil, wagererr.New(wagererr.CodeInvalidState, "wager %d has no opponent", w.ID)
	}

	qualifying := s.QualifyingMatches(matches, *w.ActivatedAt, creatorTag, opponentTag)
	if len(qualifying) > seriesLength {
		qualifying = qualifying[:seriesLength]
	}

	result := &entities.VerificationResult{WagerID: w.ID}
	for _, m := range qualifying {
		result.MatchesConsidered++
		switch {
		case m.SelfScore > m.OpponentScore:
			result.CreatorWins++
		case m.OpponentScore > m.SelfScore:
			result.OpponentWins++
		default:
			result.Anomalies++
			log.WithFields(log.Fields{
				"wagerId":    w.ID,
				"occurredAt": m.OccurredAt,
				"crowns":     m.SelfScore,
			}).Warn("Tied crown count in a 1v1 match, counting it for neither side")
		}
		if result.CreatorWins >= winsRequired || result.OpponentWins >= winsRequired {
			break
		}
	}

	switch {
	case result.CreatorWins >= winsRequired:
		winner := w.CreatorID
		tag := creatorTag
		result.WinnerID = &winner
		result.WinnerTag = &tag
	case result.OpponentWins >= winsRequired:
		winner := *w.OpponentID
		tag := opponentTag
		result.WinnerID = &winner
		result.WinnerTag = &tag
	}

	elapsed := now.Sub(*w.ActivatedAt)
	result.IsTimedOut = elapsed >= s.policy.Timeout && result.MatchesConsidered < winsRequired

	switch {
	case result.HasWinner():
		result.Outcome = entities.OutcomeWinnerDetermined
		result.Message = fmt.Sprintf("Series decided %d-%d", max(result.CreatorWins, result.OpponentWins), min(result.CreatorWins, result.OpponentWins))
	case result.IsTimedOut && result.MatchesConsidered == 0:
		result.Outcome = entities.OutcomeTimedOut
		result.Message = "No matches played within the time limit. Cancellation is available."
	case result.IsTimedOut:
		result.Outcome = entities.OutcomeNeedsReview
		result.Message = fmt.Sprintf("Only %d match played within the time limit. Manual review required.", result.MatchesConsidered)
	case result.MatchesConsidered >= seriesLength:
		result.Outcome = entities.OutcomeNeedsReview
		result.Message = "Three matches played without a decisive result. Manual review required."
	case result.MatchesConsidered == 0:
		result.Outcome = entities.OutcomePending
		result.Message = "No qualifying matches found yet."
	case result.CreatorWins == 1 && result.OpponentWins == 1:
		result.Outcome = entities.OutcomePending
		result.Message = "Score is 1-1. Waiting for 3rd game..."
	default:
		result.Outcome = entities.OutcomePending
		result.Message = fmt.Sprintf("Score is %d-%d. Waiting for more games...", result.CreatorWins, result.OpponentWins)
	}

	return result, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if TagsEqual(t, tag) {
			return true
		}
	}
	return false
}
