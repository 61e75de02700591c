package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"royalwager/database"
	"royalwager/domain/entities"
	"royalwager/domain/interfaces"
	"royalwager/domain/wagererr"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

const wagerColumns = `
	id, creator_id, opponent_id, amount::text, status, winner_id, escrow_address,
	creator_deposit_signature, opponent_deposit_signature, payout_signature,
	creator_refund_signature, opponent_refund_signature, cancel_reason, dispute_reason,
	created_at, activated_at, completed_at, cancelled_at, updated_at`

// WagerRepository implements wager data access.
// Every transition is a single conditional UPDATE; when it matches no row the
// current state is re-read to decide between an idempotent replay and a conflict.
type WagerRepository struct {
	q Queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

// newWagerRepositoryWithTx creates a new wager repository with a transaction
func newWagerRepositoryWithTx(tx Queryable) *WagerRepository {
	return &WagerRepository{q: tx}
}

// Create inserts a PENDING wager and claims the creator's outstanding slot
func (r *WagerRepository) Create(ctx context.Context, creatorID string, amount decimal.Decimal, escrowAddress *string) (*entities.Wager, error) {
	if !amount.IsPositive() {
		return nil, wagererr.New(wagererr.CodeInvalidAmount, "amount must be positive, got %s", amount.String())
	}

	var wager *entities.Wager
	err := inTx(ctx, r.q, func(tx pgx.Tx) error {
		query := `
			INSERT INTO wagers (creator_id, amount, escrow_address)
			VALUES ($1, $2::numeric, $3)
			RETURNING ` + wagerColumns

		w, err := scanWager(tx.QueryRow(ctx, query, creatorID, amount.String(), escrowAddress))
		if err != nil {
			return fmt.Errorf("failed to create wager: %w", err)
		}

		if err := claimOutstanding(ctx, tx, creatorID, w.ID); err != nil {
			return err
		}
		wager = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wager, nil
}

// GetByID retrieves a wager by its ID
func (r *WagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	return getWager(ctx, r.q, id)
}

// Join sets the opponent on a PENDING wager and claims their outstanding slot
func (r *WagerRepository) Join(ctx context.Context, id int64, opponentID string) (*entities.Wager, error) {
	var wager *entities.Wager
	err := inTx(ctx, r.q, func(tx pgx.Tx) error {
		query := `
			UPDATE wagers
			SET opponent_id = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'PENDING' AND opponent_id IS NULL AND creator_id <> $2
			RETURNING ` + wagerColumns

		w, err := scanWager(tx.QueryRow(ctx, query, id, opponentID))
		if errors.Is(err, pgx.ErrNoRows) {
			current, getErr := getWager(ctx, tx, id)
			if getErr != nil {
				return getErr
			}
			return classifyJoin(current, id, opponentID)
		}
		if err != nil {
			return fmt.Errorf("failed to join wager %d: %w", id, err)
		}

		if err := claimOutstanding(ctx, tx, opponentID, w.ID); err != nil {
			return err
		}
		wager = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wager, nil
}

func classifyJoin(current *entities.Wager, id int64, opponentID string) error {
	switch {
	case current == nil:
		return wagererr.New(wagererr.CodeNotFound, "wager %d not found", id)
	case current.CreatorID == opponentID:
		return wagererr.New(wagererr.CodeSelfJoin, "cannot join your own wager")
	case current.Status != entities.WagerStatusPending:
		return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, only PENDING wagers can be joined", id, current.Status)
	default:
		return wagererr.New(wagererr.CodeAlreadyJoined, "wager %d already has an opponent", id)
	}
}

// RecordDeposit writes a party's deposit signature once; recorded is false for a replay
func (r *WagerRepository) RecordDeposit(ctx context.Context, id int64, party entities.Party, sig entities.Signature) (*entities.Wager, bool, error) {
	column := depositColumn(party)
	opponentGuard := ""
	if party == entities.PartyOpponent {
		opponentGuard = " AND opponent_id IS NOT NULL"
	}

	var (
		wager    *entities.Wager
		recorded bool
	)
	err := inTx(ctx, r.q, func(tx pgx.Tx) error {
		if err := claimSignature(ctx, tx, sig, id, column); err != nil {
			if errors.Is(err, errSignatureInUse) {
				return wagererr.Wrap(wagererr.CodeDepositAlreadyRecorded, err, "signature %s is already recorded", sig)
			}
			return err
		}

		query := fmt.Sprintf(`
			UPDATE wagers
			SET %s = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'PENDING' AND %s IS NULL%s
			RETURNING %s`, column, column, opponentGuard, wagerColumns)

		w, err := scanWager(tx.QueryRow(ctx, query, id, string(sig)))
		if err == nil {
			wager, recorded = w, true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			switch pgErrorCode(err) {
			case pgUniqueViolation, pgCheckViolation:
				return wagererr.Wrap(wagererr.CodeDepositAlreadyRecorded, err, "signature %s is already recorded as a deposit", sig)
			}
			return fmt.Errorf("failed to record %s deposit for wager %d: %w", party, id, err)
		}

		current, err := getWager(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return wagererr.New(wagererr.CodeNotFound, "wager %d not found", id)
		}
		if existing := current.DepositOf(party); existing != nil {
			if *existing == sig {
				wager = current
				return nil
			}
			return wagererr.New(wagererr.CodeDepositAlreadyRecorded, "wager %d already has a %s deposit", id, party)
		}
		if current.Status != entities.WagerStatusPending {
			return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, deposits are only accepted while PENDING", id, current.Status)
		}
		return wagererr.New(wagererr.CodeInvalidState, "wager %d has no opponent yet", id)
	})
	if err != nil {
		return nil, false, err
	}
	return wager, recorded, nil
}

// Activate moves PENDING to ACTIVE when both deposits exist; activated is false when already ACTIVE
func (r *WagerRepository) Activate(ctx context.Context, id int64) (*entities.Wager, bool, error) {
	query := `
		UPDATE wagers
		SET status = 'ACTIVE', activated_at = NOW(), updated_at = NOW()
		WHERE id = $1
		  AND status = 'PENDING'
		  AND opponent_id IS NOT NULL
		  AND creator_deposit_signature IS NOT NULL
		  AND opponent_deposit_signature IS NOT NULL
		RETURNING ` + wagerColumns

	w, err := scanWager(r.q.QueryRow(ctx, query, id))
	if err == nil {
		return w, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to activate wager %d: %w", id, err)
	}

	current, err := getWager(ctx, r.q, id)
	if err != nil {
		return nil, false, err
	}
	switch {
	case current == nil:
		return nil, false, wagererr.New(wagererr.CodeNotFound, "wager %d not found", id)
	case current.Status == entities.WagerStatusActive:
		return current, false, nil
	case current.Status == entities.WagerStatusPending:
		return nil, false, wagererr.New(wagererr.CodeInvalidState, "wager %d is waiting for both deposits", id)
	default:
		return nil, false, wagererr.New(wagererr.CodeInvalidState, "wager %d is %s and cannot be activated", id, current.Status)
	}
}

// CompleteWithWinner moves ACTIVE to COMPLETED; completed is false when the same winner was already recorded
func (r *WagerRepository) CompleteWithWinner(ctx context.Context, id int64, winnerID string) (*entities.Wager, bool, error) {
	return r.complete(ctx, id, winnerID, entities.WagerStatusActive)
}

// ResolveDispute moves DISPUTED to COMPLETED with an operator-chosen winner
func (r *WagerRepository) ResolveDispute(ctx context.Context, id int64, winnerID string) (*entities.Wager, error) {
	w, completed, err := r.complete(ctx, id, winnerID, entities.WagerStatusDisputed)
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, wagererr.New(wagererr.CodeInvalidState, "wager %d is already COMPLETED", id)
	}
	return w, nil
}

func (r *WagerRepository) complete(ctx context.Context, id int64, winnerID string, from entities.WagerStatus) (*entities.Wager, bool, error) {
	var (
		wager     *entities.Wager
		completed bool
	)
	err := inTx(ctx, r.q, func(tx pgx.Tx) error {
		query := `
			UPDATE wagers
			SET status = 'COMPLETED', winner_id = $2, completed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = $3 AND ($2 = creator_id OR $2 = opponent_id)
			RETURNING ` + wagerColumns

		w, err := scanWager(tx.QueryRow(ctx, query, id, winnerID, string(from)))
		if err == nil {
			if err := releaseOutstanding(ctx, tx, id); err != nil {
				return err
			}
			wager, completed = w, true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to complete wager %d: %w", id, err)
		}

		current, err := getWager(ctx, tx, id)
		if err != nil {
			return err
		}
		switch {
		case current == nil:
			return wagererr.New(wagererr.CodeNotFound, "wager %d not found", id)
		case !current.IsParticipant(winnerID):
			return wagererr.New(wagererr.CodeInvalidWinner, "winner %s is not a party to wager %d", winnerID, id)
		case current.Status == entities.WagerStatusCompleted && current.WinnerID != nil && *current.WinnerID == winnerID:
			wager = current
			return nil
		case current.Status == entities.WagerStatusCompleted:
			return wagererr.New(wagererr.CodeWinnerConflict, "wager %d already completed with a different winner", id)
		default:
			return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, expected %s", id, current.Status, from)
		}
	})
	if err != nil {
		return nil, false, err
	}
	return wager, completed, nil
}

// Cancel moves the wager from the expected status to CANCELLED and releases outstanding slots.
// Cancelling an already CANCELLED wager is INVALID_STATE so only one caller observes the transition.
func (r *WagerRepository) Cancel(ctx context.Context, id int64, from entities.WagerStatus, reason string) (*entities.Wager, error) {
	var wager *entities.Wager
	err := inTx(ctx, r.q, func(tx pgx.Tx) error {
		query := `
			UPDATE wagers
			SET status = 'CANCELLED', cancel_reason = $3, cancelled_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING ` + wagerColumns

		w, err := scanWager(tx.QueryRow(ctx, query, id, string(from), reason))
		if err == nil {
			if err := releaseOutstanding(ctx, tx, id); err != nil {
				return err
			}
			wager = w
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to cancel wager %d: %w", id, err)
		}

		current, err := getWager(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return wagererr.New(wagererr.CodeNotFound, "wager %d not found", id)
		}
		return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, expected %s", id, current.Status, from)
	})
	if err != nil {
		return nil, err
	}
	return wager, nil
}

// MarkDisputed moves ACTIVE to DISPUTED. Outstanding slots stay claimed until an operator resolves it.
func (r *WagerRepository) MarkDisputed(ctx context.Context, id int64, reason string) (*entities.Wager, error) {
	query := `
		UPDATE wagers
		SET status = 'DISPUTED', dispute_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'ACTIVE'
		RETURNING ` + wagerColumns

	w, err := scanWager(r.q.QueryRow(ctx, query, id, reason))
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to dispute wager %d: %w", id, err)
	}

	current, err := getWager(ctx, r.q, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, wagererr.New(wagererr.CodeNotFound, "wager %d not found", id)
	}
	return nil, wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, only ACTIVE wagers can be disputed", id, current.Status)
}

// RecordPayout writes the payout signature once on a COMPLETED wager
func (r *WagerRepository) RecordPayout(ctx context.Context, id int64, sig entities.Signature) (*entities.Wager, bool, error) {
	var (
		wager    *entities.Wager
		recorded bool
	)
	err := inTx(ctx, r.q, func(tx pgx.Tx) error {
		if err := claimSignature(ctx, tx, sig, id, "payout_signature"); err != nil {
			if errors.Is(err, errSignatureInUse) {
				return wagererr.Wrap(wagererr.CodeAlreadyPaid, err, "signature %s is already recorded", sig)
			}
			return err
		}

		query := `
			UPDATE wagers
			SET payout_signature = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'COMPLETED' AND payout_signature IS NULL
			RETURNING ` + wagerColumns

		w, err := scanWager(tx.QueryRow(ctx, query, id, string(sig)))
		if err == nil {
			wager, recorded = w, true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			if pgErrorCode(err) == pgUniqueViolation {
				return wagererr.Wrap(wagererr.CodeAlreadyPaid, err, "signature %s is already recorded as a settlement", sig)
			}
			return fmt.Errorf("failed to record payout for wager %d: %w", id, err)
		}

		current, err := getWager(ctx, tx, id)
		if err != nil {
			return err
		}
		switch {
		case current == nil:
			return wagererr.New(wagererr.CodeNotFound, "wager %d not found", id)
		case current.PayoutSignature != nil && *current.PayoutSignature == sig:
			wager = current
			return nil
		case current.PayoutSignature != nil:
			return wagererr.New(wagererr.CodeAlreadyPaid, "wager %d was already paid out", id)
		default:
			return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, only COMPLETED wagers are paid out", id, current.Status)
		}
	})
	if err != nil {
		return nil, false, err
	}
	return wager, recorded, nil
}

// RecordRefund writes a party's refund signature once on a CANCELLED wager
func (r *WagerRepository) RecordRefund(ctx context.Context, id int64, party entities.Party, sig entities.Signature) (*entities.Wager, bool, error) {
	refundCol := refundColumn(party)

	var (
		wager    *entities.Wager
		recorded bool
	)
	err := inTx(ctx, r.q, func(tx pgx.Tx) error {
		if err := claimSignature(ctx, tx, sig, id, refundCol); err != nil {
			if errors.Is(err, errSignatureInUse) {
				return wagererr.Wrap(wagererr.CodeAlreadyPaid, err, "signature %s is already recorded", sig)
			}
			return err
		}

		query := fmt.Sprintf(`
			UPDATE wagers
			SET %s = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'CANCELLED' AND %s IS NULL AND %s IS NOT NULL
			RETURNING %s`, refundCol, refundCol, depositColumn(party), wagerColumns)

		w, err := scanWager(tx.QueryRow(ctx, query, id, string(sig)))
		if err == nil {
			wager, recorded = w, true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			if pgErrorCode(err) == pgUniqueViolation {
				return wagererr.Wrap(wagererr.CodeAlreadyPaid, err, "signature %s is already recorded as a settlement", sig)
			}
			return fmt.Errorf("failed to record %s refund for wager %d: %w", party, id, err)
		}

		current, err := getWager(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return wagererr.New(wagererr.CodeNotFound, "wager %d not found", id)
		}
		if existing := current.RefundOf(party); existing != nil {
			if *existing == sig {
				wager = current
				return nil
			}
			return wagererr.New(wagererr.CodeAlreadyPaid, "wager %d already refunded the %s", id, party)
		}
		if current.Status != entities.WagerStatusCancelled {
			return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, only CANCELLED wagers are refunded", id, current.Status)
		}
		return wagererr.New(wagererr.CodeInvalidState, "the %s never deposited into wager %d", party, id)
	})
	if err != nil {
		return nil, false, err
	}
	return wager, recorded, nil
}

// FindByDepositSignature returns the wager holding sig as either deposit, or nil
func (r *WagerRepository) FindByDepositSignature(ctx context.Context, sig entities.Signature) (*entities.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE creator_deposit_signature = $1 OR opponent_deposit_signature = $1
		LIMIT 1`

	w, err := scanWager(r.q.QueryRow(ctx, query, string(sig)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find wager by deposit signature: %w", err)
	}
	return w, nil
}

// FindPendingByEscrowAddress returns the PENDING wager funded through address, or nil
func (r *WagerRepository) FindPendingByEscrowAddress(ctx context.Context, address string) (*entities.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE escrow_address = $1 AND status = 'PENDING'
		ORDER BY id DESC
		LIMIT 1`

	w, err := scanWager(r.q.QueryRow(ctx, query, address))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending wager for escrow %s: %w", address, err)
	}
	return w, nil
}

// FindLatestByEscrowAddress returns the newest wager funded through address whatever its status, or nil
func (r *WagerRepository) FindLatestByEscrowAddress(ctx context.Context, address string) (*entities.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE escrow_address = $1
		ORDER BY id DESC
		LIMIT 1`

	w, err := scanWager(r.q.QueryRow(ctx, query, address))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find wager for escrow %s: %w", address, err)
	}
	return w, nil
}

// List returns wagers newest first
func (r *WagerRepository) List(ctx context.Context, filter interfaces.WagerFilter) ([]*entities.Wager, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.WalletID != "" {
		args = append(args, filter.WalletID)
		conditions = append(conditions, fmt.Sprintf("(creator_id = $%d OR opponent_id = $%d)", len(args), len(args)))
	}

	query := `SELECT ` + wagerColumns + ` FROM wagers`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, clampLimit(filter.Limit))
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	return r.queryWagers(ctx, query, args...)
}

// ListUnsettled returns COMPLETED and CANCELLED wagers that still owe a transfer
func (r *WagerRepository) ListUnsettled(ctx context.Context, limit int) ([]*entities.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE (status = 'COMPLETED' AND payout_signature IS NULL)
		   OR (status = 'CANCELLED' AND (
		        (creator_deposit_signature IS NOT NULL AND creator_refund_signature IS NULL) OR
		        (opponent_deposit_signature IS NOT NULL AND opponent_refund_signature IS NULL)))
		ORDER BY updated_at ASC, id ASC
		LIMIT $1`

	return r.queryWagers(ctx, query, clampLimit(limit))
}

func (r *WagerRepository) queryWagers(ctx context.Context, query string, args ...any) ([]*entities.Wager, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*entities.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wagers: %w", err)
	}
	return wagers, nil
}

func getWager(ctx context.Context, q Queryable, id int64) (*entities.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`

	w, err := scanWager(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %d: %w", id, err)
	}
	return w, nil
}

func claimOutstanding(ctx context.Context, tx pgx.Tx, walletID string, wagerID int64) error {
	query := `
		INSERT INTO outstanding_wagers (wallet_id, wager_id)
		VALUES ($1, $2)
		ON CONFLICT (wallet_id) DO NOTHING
		RETURNING wallet_id`

	var claimed string
	err := tx.QueryRow(ctx, query, walletID, wagerID).Scan(&claimed)
	if errors.Is(err, pgx.ErrNoRows) {
		return wagererr.New(wagererr.CodeDuplicateOutstanding, "wallet %s already has an outstanding wager", walletID)
	}
	if err != nil {
		return fmt.Errorf("failed to claim outstanding slot for %s: %w", walletID, err)
	}
	return nil
}

func releaseOutstanding(ctx context.Context, tx pgx.Tx, wagerID int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM outstanding_wagers WHERE wager_id = $1`, wagerID); err != nil {
		return fmt.Errorf("failed to release outstanding slots for wager %d: %w", wagerID, err)
	}
	return nil
}

// errSignatureInUse means the signature is already recorded on another wager or slot
var errSignatureInUse = errors.New("signature already used")

// signaturePurposes maps a wagers column to its transaction_signatures purpose
var signaturePurposes = map[string]string{
	"creator_deposit_signature":  "creator_deposit",
	"opponent_deposit_signature": "opponent_deposit",
	"payout_signature":           "payout",
	"creator_refund_signature":   "creator_refund",
	"opponent_refund_signature":  "opponent_refund",
}

// claimSignature records sig in the global signature ledger for the given wager column.
// A replay for the same slot, or a slot already holding another signature, passes through
// so the caller's conditional UPDATE decides between replay and conflict.
func claimSignature(ctx context.Context, tx pgx.Tx, sig entities.Signature, wagerID int64, column string) error {
	purpose := signaturePurposes[column]

	var claimed string
	err := tx.QueryRow(ctx, `
		INSERT INTO transaction_signatures (signature, wager_id, purpose)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING signature`, string(sig), wagerID, purpose).Scan(&claimed)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to claim signature %s: %w", sig, err)
	}

	var (
		heldBy int64
		heldAs string
	)
	err = tx.QueryRow(ctx, `
		SELECT wager_id, purpose FROM transaction_signatures WHERE signature = $1`, string(sig)).Scan(&heldBy, &heldAs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up signature %s: %w", sig, err)
	}
	if heldBy != wagerID || heldAs != purpose {
		return fmt.Errorf("%w: %s is recorded as %s on wager %d", errSignatureInUse, sig, heldAs, heldBy)
	}
	return nil
}

func depositColumn(p entities.Party) string {
	if p == entities.PartyOpponent {
		return "opponent_deposit_signature"
	}
	return "creator_deposit_signature"
}

func refundColumn(p entities.Party) string {
	if p == entities.PartyOpponent {
		return "opponent_refund_signature"
	}
	return "creator_refund_signature"
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func scanWager(row pgx.Row) (*entities.Wager, error) {
	var (
		w                                  entities.Wager
		amount, status                     string
		creatorDeposit, opponentDeposit    *string
		payout, creatorRefund, oppRefund   *string
		activatedAt, completedAt, cancelAt *time.Time
	)
	err := row.Scan(
		&w.ID,
		&w.CreatorID,
		&w.OpponentID,
		&amount,
		&status,
		&w.WinnerID,
		&w.EscrowAddress,
		&creatorDeposit,
		&opponentDeposit,
		&payout,
		&creatorRefund,
		&oppRefund,
		&w.CancelReason,
		&w.DisputeReason,
		&w.CreatedAt,
		&activatedAt,
		&completedAt,
		&cancelAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	w.Status, err = entities.ParseWagerStatus(status)
	if err != nil {
		return nil, fmt.Errorf("invalid stored status for wager %d: %w", w.ID, err)
	}

	w.CreatorDepositSignature = toSignature(creatorDeposit)
	w.OpponentDepositSignature = toSignature(opponentDeposit)
	w.PayoutSignature = toSignature(payout)
	w.CreatorRefundSignature = toSignature(creatorRefund)
	w.OpponentRefundSignature = toSignature(oppRefund)
	w.ActivatedAt = activatedAt
	w.CompletedAt = completedAt
	w.CancelledAt = cancelAt

	return &w, nil
}

func toSignature(s *string) *entities.Signature {
	if s == nil {
		return nil
	}
	sig := entities.Signature(*s)
	return &sig
}
