package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"royalwager/domain/entities"
	"royalwager/domain/interfaces"
	"royalwager/domain/services"
	"royalwager/domain/wagererr"
)

// ProfileServiceOptions tunes the profile service
type ProfileServiceOptions struct {
	RepositoryTimeout time.Duration
	VerifyTag         bool
	SummaryTTL        time.Duration
}

// ProfileService maps wallets to player tags and serves display-only player summaries
type ProfileService struct {
	uowFactory interfaces.UnitOfWorkFactory
	oracle     interfaces.MatchOracle
	cache      interfaces.PlayerSummaryCache
	opts       ProfileServiceOptions
}

// NewProfileService creates a new profile service; cache may be nil
func NewProfileService(uowFactory interfaces.UnitOfWorkFactory, oracle interfaces.MatchOracle, cache interfaces.PlayerSummaryCache, opts ProfileServiceOptions) *ProfileService {
	return &ProfileService{
		uowFactory: uowFactory,
		oracle:     oracle,
		cache:      cache,
		opts:       opts,
	}
}

// GetProfile returns the wallet's profile, or nil when none exists
func (s *ProfileService) GetProfile(ctx context.Context, walletID string) (*entities.PlayerProfile, error) {
	if err := services.ValidateWallet(walletID); err != nil {
		return nil, err
	}

	var profile *entities.PlayerProfile
	err := runInUnitOfWork(ctx, s.uowFactory, s.opts.RepositoryTimeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		var err error
		profile, err = uow.ProfileRepository().GetByWallet(ctx, walletID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// UpsertProfile stores the normalized tag for a wallet, optionally confirming the player exists
func (s *ProfileService) UpsertProfile(ctx context.Context, walletID string, rawTag string) (*entities.PlayerProfile, error) {
	if err := services.ValidateWallet(walletID); err != nil {
		return nil, err
	}
	tag, err := services.NormalizeTag(rawTag)
	if err != nil {
		return nil, err
	}

	if s.opts.VerifyTag {
		summary, err := s.oracle.FetchPlayerSummary(ctx, tag)
		if err != nil {
			if wagererr.HasCode(err, wagererr.CodePlayerNotFound) {
				return nil, wagererr.Wrap(wagererr.CodeInvalidTag, err, "player %s does not exist", tag)
			}
			return nil, err
		}
		s.storeSummary(ctx, summary)
	}

	var profile *entities.PlayerProfile
	err = runInUnitOfWork(ctx, s.uowFactory, s.opts.RepositoryTimeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		var err error
		profile, err = uow.ProfileRepository().Upsert(ctx, walletID, tag)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"walletId": walletID,
		"tag":      tag,
	}).Info("Player profile saved")
	return profile, nil
}

// GetPlayerSummary returns display-only statistics, served from the cache when possible
func (s *ProfileService) GetPlayerSummary(ctx context.Context, rawTag string) (*entities.PlayerSummary, error) {
	tag, err := services.NormalizeTag(rawTag)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, tag)
		if err != nil {
			log.WithFields(log.Fields{
				"tag":   tag,
				"error": err,
			}).Warn("Player summary cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	summary, err := s.oracle.FetchPlayerSummary(ctx, tag)
	if err != nil {
		return nil, err
	}
	s.storeSummary(ctx, summary)
	return summary, nil
}

func (s *ProfileService) storeSummary(ctx context.Context, summary *entities.PlayerSummary) {
	if s.cache == nil || summary == nil || s.opts.SummaryTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, summary, s.opts.SummaryTTL); err != nil {
		log.WithFields(log.Fields{
			"tag":   summary.Tag,
			"error": err,
		}).Warn("Player summary cache write failed")
	}
}
