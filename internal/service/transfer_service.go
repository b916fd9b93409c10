package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"silverhand-wallet/internal/core/domain"
	"silverhand-wallet/internal/core/ports"
	"silverhand-wallet/internal/metrics"
	"silverhand-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// transferState is the lifecycle state of a single transfer attempt.
type transferState string

const (
	stateComposing         transferState = "COMPOSING"
	stateValidating        transferState = "VALIDATING"
	stateAwaitingSignature transferState = "AWAITING_SIGNATURE"
	stateSubmitting        transferState = "SUBMITTING"
	stateConfirmed         transferState = "CONFIRMED"
	stateFailed            transferState = "FAILED"
	stateCancelled         transferState = "CANCELLED"
)

// transferTransitions is the full transition relation. Failed is reachable
// from every non-terminal state; Cancelled only before the signer is
// involved.
var transferTransitions = map[transferState][]transferState{
	stateComposing:         {stateValidating, stateFailed, stateCancelled},
	stateValidating:        {stateAwaitingSignature, stateFailed, stateCancelled},
	stateAwaitingSignature: {stateSubmitting, stateFailed},
	stateSubmitting:        {stateConfirmed, stateFailed},
}

// transferRun tracks one attempt through the state machine.
type transferRun struct {
	state transferState
}

func (r *transferRun) to(next transferState) error {
	for _, allowed := range transferTransitions[r.state] {
		if allowed == next {
			r.state = next
			return nil
		}
	}
	return apperror.ErrIllegalTransition(string(r.state), string(next))
}

// receiptTTL bounds how long a settlement receipt is remembered for
// dedupe. Retried submissions arrive within seconds, not days.
const receiptTTL = 24 * time.Hour

// TransferService drives a transfer attempt from intent to a terminal
// state and records the outcome in the ledger. It implements
// ports.TransferService.
type TransferService struct {
	wallet    string
	fees      ports.FeeCalculator
	ledger    ports.Ledger
	links     ports.LinkRegistry
	signer    ports.Signer
	submitter ports.Submitter
	receipts  ports.ReceiptStore // optional, nil disables dedupe
	log       zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewTransferService(
	wallet string,
	fees ports.FeeCalculator,
	ledger ports.Ledger,
	links ports.LinkRegistry,
	signer ports.Signer,
	submitter ports.Submitter,
	receipts ports.ReceiptStore,
	log zerolog.Logger,
) *TransferService {
	return &TransferService{
		wallet:    wallet,
		fees:      fees,
		ledger:    ledger,
		links:     links,
		signer:    signer,
		submitter: submitter,
		receipts:  receipts,
		log:       log.With().Str("component", "transfer_service").Logger(),
		inFlight:  make(map[string]struct{}),
	}
}

// Execute runs one transfer attempt. Validation failures leave no ledger
// trace; once the signer has been invoked every outcome is recorded. The
// returned transaction carries the terminal status.
func (s *TransferService) Execute(ctx context.Context, input ports.TransferInput) (*domain.Transaction, error) {
	run := &transferRun{state: stateComposing}

	if err := ctx.Err(); err != nil {
		_ = run.to(stateCancelled)
		return nil, apperror.ErrTransferCancelled()
	}
	if err := run.to(stateValidating); err != nil {
		return nil, err
	}

	order, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	// Cancellation is honored up to here; past the gate the transfer runs
	// to a terminal state.
	if ctx.Err() != nil {
		_ = run.to(stateCancelled)
		return nil, apperror.ErrTransferCancelled()
	}

	if !s.acquire() {
		return nil, apperror.ErrConcurrentTransferInProgress()
	}
	defer s.release()

	if err := run.to(stateAwaitingSignature); err != nil {
		return nil, err
	}
	signed, err := s.signer.Sign(ctx, *order)
	if err != nil {
		_ = run.to(stateFailed)
		return s.recordSignerFailure(ctx, input, order, err)
	}

	if err := run.to(stateSubmitting); err != nil {
		return nil, err
	}
	tx := &domain.Transaction{
		ID:           uuid.New(),
		Direction:    domain.DirectionSent,
		Counterparty: order.Request.RecipientAddress,
		Amount:       order.Amount.Neg(),
		Fee:          order.Fee,
		Status:       domain.TransactionStatusPending,
		LinkID:       input.LinkID,
		Timestamp:    time.Now().UTC(),
	}
	if err := s.ledger.Append(ctx, tx); err != nil {
		return nil, err
	}

	// The submission and its resolution must outlive a caller that gives
	// up waiting; a pending record may not be left dangling.
	detached := context.WithoutCancel(ctx)

	receipt, err := s.submitter.Submit(detached, signed)
	if err != nil {
		_ = run.to(stateFailed)
		reason := fmt.Sprintf("submission failed: %v", err)
		if rerr := s.ledger.Resolve(detached, tx.ID, domain.TransactionStatusFailed, &reason); rerr != nil {
			s.log.Error().Err(rerr).Str("tx_id", tx.ID.String()).Msg("failed to resolve rejected submission")
		}
		tx.Status = domain.TransactionStatusFailed
		tx.FailureReason = &reason
		metrics.TransferOutcomes.WithLabelValues("failed").Inc()
		return tx, apperror.ErrSubmissionFailed(err)
	}

	fresh := true
	if s.receipts != nil && receipt.ID != "" {
		fresh, err = s.receipts.CheckAndSet(detached, receipt.ID, receiptTTL)
		if err != nil {
			s.log.Warn().Err(err).Str("receipt_id", receipt.ID).Msg("receipt store unavailable, skipping dedupe")
			fresh = true
		}
	}

	if fresh {
		if rerr := s.ledger.Resolve(detached, tx.ID, domain.TransactionStatusConfirmed, nil); rerr != nil {
			// The ledger is the second line of defense; if it refuses the
			// booking the attempt still terminates with an audit record.
			_ = run.to(stateFailed)
			reason := fmt.Sprintf("ledger rejected confirmation: %v", rerr)
			if ferr := s.ledger.Resolve(detached, tx.ID, domain.TransactionStatusFailed, &reason); ferr != nil {
				s.log.Error().Err(ferr).Str("tx_id", tx.ID.String()).Msg("failed to resolve rejected confirmation")
			}
			tx.Status = domain.TransactionStatusFailed
			tx.FailureReason = &reason
			metrics.TransferOutcomes.WithLabelValues("failed").Inc()
			return tx, rerr
		}
	} else {
		// The settlement was already booked by an earlier attempt; void
		// this record so the balance is deducted exactly once.
		reason := fmt.Sprintf("duplicate settlement receipt %s", receipt.ID)
		if rerr := s.ledger.Resolve(detached, tx.ID, domain.TransactionStatusFailed, &reason); rerr != nil {
			s.log.Error().Err(rerr).Str("tx_id", tx.ID.String()).Msg("failed to void duplicate settlement")
		}
	}

	if err := run.to(stateConfirmed); err != nil {
		return nil, err
	}
	tx.Status = domain.TransactionStatusConfirmed

	if input.LinkID != nil {
		if !fresh {
			s.log.Warn().Str("receipt_id", receipt.ID).Msg("settlement receipt already recorded, skipping use increment")
		} else if uerr := s.links.RecordUse(detached, *input.LinkID); uerr != nil {
			// The settlement already happened; a stale link cannot unwind it.
			s.log.Warn().Err(uerr).Str("link_id", input.LinkID.String()).Msg("could not record link use")
		}
	}

	metrics.TransferOutcomes.WithLabelValues("confirmed").Inc()
	s.log.Info().
		Str("tx_id", tx.ID.String()).
		Str("recipient", order.Request.RecipientAddress).
		Str("amount", order.Amount.String()).
		Str("fee", order.Fee.String()).
		Str("receipt_id", receipt.ID).
		Msg("transfer confirmed")

	return tx, nil
}

// validate performs all checks that may reject the transfer before any
// external collaborator is called, and fixes the amount and fee.
func (s *TransferService) validate(ctx context.Context, input ports.TransferInput) (*ports.TransferOrder, error) {
	req := input.Request

	if !domain.ValidAddress(req.RecipientAddress) {
		return nil, apperror.ErrInvalidAddress()
	}

	var amount = input.Amount
	if req.HasAmount() {
		if amount != nil && !amount.Equal(*req.Amount) {
			return nil, apperror.ErrAmountMismatch()
		}
		amount = req.Amount
	}
	if amount == nil || !domain.ValidAmount(*amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	if input.LinkID != nil {
		link, err := s.links.Get(ctx, *input.LinkID)
		if err != nil {
			return nil, err
		}
		if !link.Active {
			return nil, apperror.ErrLinkInactive()
		}
		if link.HasFixedAmount() && !link.FixedAmount.Equal(*amount) {
			return nil, apperror.ErrAmountMismatch()
		}
	}

	fee, err := s.fees.Fee(*amount, domain.RoleConsumer)
	if err != nil {
		return nil, err
	}

	if s.ledger.Balance().LessThan(amount.Add(fee)) {
		return nil, apperror.ErrInsufficientFunds()
	}

	return &ports.TransferOrder{
		Sender:  s.wallet,
		Request: req,
		Amount:  *amount,
		Fee:     fee,
	}, nil
}

// recordSignerFailure books a failed ledger record for a transfer the
// signer rejected, so the attempt stays visible in history.
func (s *TransferService) recordSignerFailure(ctx context.Context, input ports.TransferInput, order *ports.TransferOrder, cause error) (*domain.Transaction, error) {
	reason := fmt.Sprintf("signing failed: %v", cause)
	tx := &domain.Transaction{
		ID:            uuid.New(),
		Direction:     domain.DirectionSent,
		Counterparty:  order.Request.RecipientAddress,
		Amount:        order.Amount.Neg(),
		Fee:           order.Fee,
		Status:        domain.TransactionStatusFailed,
		LinkID:        input.LinkID,
		FailureReason: &reason,
		Timestamp:     time.Now().UTC(),
	}
	if err := s.ledger.Append(context.WithoutCancel(ctx), tx); err != nil {
		s.log.Error().Err(err).Msg("failed to record signer rejection")
	}
	metrics.TransferOutcomes.WithLabelValues("failed").Inc()
	s.log.Warn().Err(cause).Str("recipient", order.Request.RecipientAddress).Msg("signer rejected transfer")
	return tx, apperror.ErrSignerRejected(cause)
}

func (s *TransferService) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[s.wallet]; busy {
		return false
	}
	s.inFlight[s.wallet] = struct{}{}
	return true
}

func (s *TransferService) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, s.wallet)
}
