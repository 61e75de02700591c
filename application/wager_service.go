package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"royalwager/domain/entities"
	"royalwager/domain/interfaces"
	"royalwager/domain/services"
	"royalwager/domain/wagererr"
	"royalwager/events"
	"royalwager/infrastructure/observability"
)

const (
	// CancelReasonOperator is recorded when an operator cancels without giving a reason
	CancelReasonOperator = "operator_cancel"

	verifyRateWindow = time.Minute
)

// WagerServiceOptions tunes the wager service
type WagerServiceOptions struct {
	RepositoryTimeout        time.Duration
	VerifyRateLimitPerMinute int
}

// WagerService runs the wager lifecycle: creation, joining, verification, cancellation and disputes.
// Every state change is a single compare-and-swap in the repository.
type WagerService struct {
	uowFactory   interfaces.UnitOfWorkFactory
	oracle       interfaces.MatchOracle
	limiter      interfaces.RateLimiter
	stateMachine *services.WagerStateMachine
	verifier     *services.MatchVerificationService
	metrics      *observability.MetricsProvider
	opts         WagerServiceOptions
	now          func() time.Time
}

// NewWagerService creates a new wager service; limiter and metrics may be nil
func NewWagerService(
	uowFactory interfaces.UnitOfWorkFactory,
	oracle interfaces.MatchOracle,
	limiter interfaces.RateLimiter,
	verifier *services.MatchVerificationService,
	metrics *observability.MetricsProvider,
	opts WagerServiceOptions,
) *WagerService {
	return &WagerService{
		uowFactory:   uowFactory,
		oracle:       oracle,
		limiter:      limiter,
		stateMachine: services.NewWagerStateMachine(verifier.Policy().Timeout),
		verifier:     verifier,
		metrics:      metrics,
		opts:         opts,
		now:          time.Now,
	}
}

// CreateWager opens a PENDING wager for creatorID
func (s *WagerService) CreateWager(ctx context.Context, creatorID string, amount decimal.Decimal, escrowAddress *string) (*entities.Wager, error) {
	if err := services.ValidateWallet(creatorID); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, wagererr.New(wagererr.CodeInvalidAmount, "wager amount must be positive")
	}
	if escrowAddress != nil {
		if err := services.ValidateWallet(*escrowAddress); err != nil {
			return nil, wagererr.Wrap(wagererr.CodeInvalidWallet, err, "invalid escrow address")
		}
	}

	var created *entities.Wager
	err := runInUnitOfWork(ctx, s.uowFactory, s.opts.RepositoryTimeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		w, err := uow.WagerRepository().Create(ctx, creatorID, amount, escrowAddress)
		if err != nil {
			return err
		}
		created = w
		return uow.EventBus().Publish(events.NewWagerStateChangeEvent(w, "", "created"))
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"wagerId":   created.ID,
		"creatorId": creatorID,
		"amount":    amount.String(),
	}).Info("Wager created")
	return created, nil
}

// GetWager returns the wager or NOT_FOUND
func (s *WagerService) GetWager(ctx context.Context, id int64) (*entities.Wager, error) {
	var found *entities.Wager
	err := runInUnitOfWork(ctx, s.uowFactory, s.opts.RepositoryTimeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		w, err := loadWager(ctx, uow, id)
		found = w
		return err
	})
	return found, err
}

// ListWagers returns wagers newest first
func (s *WagerService) ListWagers(ctx context.Context, filter interfaces.WagerFilter) ([]*entities.Wager, error) {
	if filter.WalletID != "" {
		if err := services.ValidateWallet(filter.WalletID); err != nil {
			return nil, err
		}
	}

	var wagers []*entities.Wager
	err := runInUnitOfWork(ctx, s.uowFactory, s.opts.RepositoryTimeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		var err error
		wagers, err = uow.WagerRepository().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers: %w", err)
	}
	return wagers, nil
}

// JoinWager sets the opponent on a PENDING wager
func (s *WagerService) JoinWager(ctx context.Context, id int64, opponentID string) (*entities.Wager, error) {
	if err := services.ValidateWallet(opponentID); err != nil {
		return nil, err
	}

	var joined *entities.Wager
	err := runInUnitOfWork(ctx, s.uowFactory, s.opts.RepositoryTimeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		current, err := loadWager(ctx, uow, id)
		if err != nil {
			return err
		}
		if err := s.stateMachine.CanJoin(current, opponentID); err != nil {
			return err
		}

		w, err := uow.WagerRepository().Join(ctx, id, opponentID)
		if err != nil {
			return err
		}
		joined = w
		return uow.EventBus().Publish(events.NewWagerStateChangeEvent(w, entities.WagerStatusPending, "joined"))
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"wagerId":    id,
		"opponentId": opponentID,
	}).Info("Opponent joined wager")
	return joined, nil
}

// VerifyWager evaluates the best-of-3 series and completes the wager when a winner is determined.
// It never cancels or disputes on its own.
func (s *WagerService) VerifyWager(ctx context.Context, id int64) (*entities.VerificationResult, error) {
	if err := s.checkVerifyRate(ctx, id); err != nil {
		return nil, err
	}

	w, tags, err := s.loadForVerification(ctx, id)
	if err != nil {
		return nil, err
	}

	if w.Status == entities.WagerStatusCompleted {
		s.metrics.RecordVerification(ctx, string(entities.OutcomeAlreadyCompleted))
		return alreadyCompletedResult(w, tags.winner), nil
	}

	result, err := s.evaluate(ctx, w, tags)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordVerification(ctx, string(result.Outcome))

	if !result.HasWinner() {
		return result, nil
	}

	winnerID := *result.WinnerID
	if err := s.stateMachine.CanComplete(w, winnerID); err != nil {
		return nil, err
	}
	err = runInUnitOfWork(ctx, s.uowFactory, s.opts.RepositoryTimeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		completed, changed, err := uow.WagerRepository().CompleteWithWinner(ctx, id, winnerID)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return uow.EventBus().Publish(events.NewWagerStateChangeEvent(completed, entities.WagerStatusActive, result.Message))
	})
	if err != nil {
		log.WithFields(log.Fields{
			"wagerId":  id,
			"winnerId": winnerID,
			"error":    err,
		}).Error("Failed to record verified winner")
		return nil, err
	}

	log.WithFields(log.Fields{
		"wagerId":      id,
		"winnerId":     winnerID,
		"creatorWins":  result.CreatorWins,
		"opponentWins": result.OpponentWins,
	}).Info("Wager completed by verification")
	return result, nil
}

// CancelWager cancels a wager on behalf of one of its parties.
// ACTIVE wagers additionally require the timeout to have passed with no qualifying match.
func (s *WagerService) CancelWager(ctx context.Context, id int64, requesterID string) (*entities.Wager, error) {
	if err := services.ValidateWallet(requesterID); err != nil {
		return nil, err
	}

	w, err := s.GetWager(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.stateMachine.CanCancel(w, services.CancelActorParty, requesterID, s.now()); err != nil {
		return nil, err
	}

	reason := services.CancelReasonPartyRequest
	if w.Status == entities.WagerStatusActive {
		_, tags, err := s.loadForVerification(ctx, id)
		if err != nil {
			return nil, err
		}
		result, err := s.evaluate(ctx, w, tags)
		if err != nil {
			return nil, err
		}
		if result.MatchesConsidered > 0 {
			return nil, wagererr.New(wagererr.CodeMatchesPlayed, "wager %d has %d qualifying matches and cannot be cancelled", id, result.MatchesConsidered)
		}
		reason = services.CancelReasonTimeoutNoMatches
	}

	return s.cancel(ctx, w, reason)
}

// DisputeWager moves an ACTIVE wager to DISPUTED for operator review
func (s *WagerService) DisputeWager(ctx context.Context, id int64, reason string) (*entities.Wager, error) {
	var disputed *entities.Wager
	err := runInUnitOfWork(ctx, s.uowFactory, s.opts.RepositoryTimeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		current, err := loadWager(ctx, uow, id)
		if err != nil {
			return err
		}
		if err := s.stateMachine.CanDispute(current); err != nil {
			return err
		}

		w, err := uow.WagerRepository().MarkDisputed(ctx, id, reason)
		if err != nil {
			return err
		}
		disputed = w
		return uow.EventBus().Publish(events.NewWagerStateChangeEvent(w, entities.WagerStatusActive, reason))
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"wagerId": id,
		"reason":  reason,
	}).Warn("Wager disputed")
	return disputed, nil
}

// ResolveDispute completes a DISPUTED wager with the operator's chosen winner
func (s *WagerService) ResolveDispute(ctx context.Context, id int64, winnerID string) (*entities.Wager, error) {
	if err := services.ValidateWallet(winnerID); err != nil {
		return nil, wagererr.Wrap(wagererr.CodeInvalidWinner, err, "invalid winner")
	}

	var resolved *entities.Wager
	err := runInUnitOfWork(ctx, s.uowFactory, s.opts.RepositoryTimeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		current, err := loadWager(ctx, uow, id)
		if err != nil {
			return err
		}
		if err := s.stateMachine.CanResolveDispute(current, winnerID); err != nil {
			return err
		}

		w, err := uow.WagerRepository().ResolveDispute(ctx, id, winnerID)
		if err != nil {
			return err
		}
		resolved = w
		return uow.EventBus().Publish(events.NewWagerStateChangeEvent(w, entities.WagerStatusDisputed, "dispute_resolved"))
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"wagerId":  id,
		"winnerId": winnerID,
	}).Info("Dispute resolved")
	return resolved, nil
}

// OperatorCancel cancels a PENDING, ACTIVE or DISPUTED wager without the timeout guard
func (s *WagerService) OperatorCancel(ctx context.Context, id int64, reason string) (*entities.Wager, error) {
	if reason == "" {
		reason = CancelReasonOperator
	}

	w, err := s.GetWager(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.stateMachine.CanCancel(w, services.CancelActorOperator, "", s.now()); err != nil {
		return nil, err
	}

	return s.cancel(ctx, w, reason)
}

func (s *WagerService) cancel(ctx context.Context, w *entities.Wager, reason string) (*entities.Wager, error) {
	var cancelled *entities.Wager
	err := runInUnitOfWork(ctx, s.uowFactory, s.opts.RepositoryTimeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		updated, err := uow.WagerRepository().Cancel(ctx, w.ID, w.Status, reason)
		if err != nil {
			return err
		}
		cancelled = updated
		return uow.EventBus().Publish(events.NewWagerStateChangeEvent(updated, w.Status, reason))
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"wagerId":    w.ID,
		"fromStatus": w.Status,
		"reason":     reason,
	}).Info("Wager cancelled")
	return cancelled, nil
}

type partyTags struct {
	creator  string
	opponent string
	// winner is only set for COMPLETED wagers
	winner string
}

// loadForVerification reads the wager and both parties' tags.
// COMPLETED wagers return without requiring profiles.
func (s *WagerService) loadForVerification(ctx context.Context, id int64) (*entities.Wager, partyTags, error) {
	var (
		w    *entities.Wager
		tags partyTags
	)
	err := runInUnitOfWork(ctx, s.uowFactory, s.opts.RepositoryTimeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		var err error
		w, err = loadWager(ctx, uow, id)
		if err != nil {
			return err
		}

		switch w.Status {
		case entities.WagerStatusCompleted:
			if w.WinnerID == nil {
				return nil
			}
			// The winner is already recorded, so a missing tag only drops it from the response
			profile, err := uow.ProfileRepository().GetByWallet(ctx, *w.WinnerID)
			if err != nil {
				log.WithFields(log.Fields{
					"wagerId":  id,
					"winnerId": *w.WinnerID,
					"error":    err,
				}).Warn("Failed to look up winner profile for completed wager")
				return nil
			}
			if profile != nil {
				tags.winner = profile.Tag
			}
			return nil
		case entities.WagerStatusActive:
		default:
			return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, only ACTIVE wagers can be verified", id, w.Status)
		}

		creator, err := uow.ProfileRepository().GetByWallet(ctx, w.CreatorID)
		if err != nil {
			return fmt.Errorf("failed to get creator profile: %w", err)
		}
		opponent, err := uow.ProfileRepository().GetByWallet(ctx, w.WalletOf(entities.PartyOpponent))
		if err != nil {
			return fmt.Errorf("failed to get opponent profile: %w", err)
		}
		if creator == nil || opponent == nil || creator.Tag == "" || opponent.Tag == "" {
			return wagererr.New(wagererr.CodeProfileMissing, "both parties of wager %d need a player tag before verification", id)
		}
		tags = partyTags{creator: creator.Tag, opponent: opponent.Tag}
		return nil
	})
	if err != nil {
		return nil, partyTags{}, err
	}
	return w, tags, nil
}

func (s *WagerService) evaluate(ctx context.Context, w *entities.Wager, tags partyTags) (*entities.VerificationResult, error) {
	matches, err := s.oracle.FetchRecentMatches(ctx, tags.creator)
	if err != nil {
		log.WithFields(log.Fields{
			"wagerId": w.ID,
			"tag":     tags.creator,
			"error":   err,
		}).Warn("Failed to fetch battle log for verification")
		return nil, err
	}
	return s.verifier.Evaluate(w, tags.creator, tags.opponent, matches, s.now())
}

func (s *WagerService) checkVerifyRate(ctx context.Context, id int64) error {
	if s.limiter == nil || s.opts.VerifyRateLimitPerMinute <= 0 {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, fmt.Sprintf("verify:%d", id), s.opts.VerifyRateLimitPerMinute, verifyRateWindow)
	if err != nil {
		// The limiter is advisory; an outage must not block verification
		log.WithFields(log.Fields{
			"wagerId": id,
			"error":   err,
		}).Warn("Rate limiter unavailable, allowing verification")
		return nil
	}
	if !allowed {
		return wagererr.New(wagererr.CodeRateLimited, "too many verification requests for wager %d", id)
	}
	return nil
}

func alreadyCompletedResult(w *entities.Wager, winnerTag string) *entities.VerificationResult {
	result := &entities.VerificationResult{
		WagerID:  w.ID,
		Outcome:  entities.OutcomeAlreadyCompleted,
		WinnerID: w.WinnerID,
		Message:  "Winner already recorded",
	}
	if winnerTag != "" {
		result.WinnerTag = &winnerTag
	}
	return result
}

func loadWager(ctx context.Context, uow interfaces.UnitOfWork, id int64) (*entities.Wager, error) {
	w, err := uow.WagerRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get wager: %w", err)
	}
	if w == nil {
		return nil, wagererr.New(wagererr.CodeNotFound, "wager %d not found", id)
	}
	return w, nil
}
