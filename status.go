package persona

import (
	"context"
)

// Reasons recorded on a status change
const (
	StatusReasonRegistered     = "registered"
	StatusReasonEmailVerified  = "email_verified"
	StatusReasonEmailChanged   = "email_changed"
	StatusReasonProfileUpdated = "profile_updated"
)

// StatusChange describes an account status transition before it is persisted.
type StatusChange struct {
	Account *Account
	From    string
	To      string
	Reason  string
}

// StatusHook runs before a status transition is persisted. Returning an
// error aborts the operation, the account keeps its previous status.
type StatusHook func(ctx context.Context, change StatusChange) error

// transition moves account to status, running the configured hooks first.
// Same-status transitions are not reported to hooks.
func (p *Persona) transition(ctx context.Context, account *Account, to, reason string) error {
	from := account.AccountStatus
	if from == to {
		return nil
	}

	change := StatusChange{
		Account: account,
		From:    from,
		To:      to,
		Reason:  reason,
	}

	for _, hook := range p.statusHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, change); err != nil {
			return err
		}
	}

	account.AccountStatus = to
	p.logger.Info("account status changed", "account_id", account.ID, "from", from, "to", to, "reason", reason)
	return nil
}
