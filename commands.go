package persona

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const commandTimeout = 10 * time.Second

// RegisterAccountMessage registers a new account
type RegisterAccountMessage struct {
	Payload    Payload `json:"payload"`
	Prepare    PrepareRegistration
	OnResponse func(account *Account)
}

func (m RegisterAccountMessage) Type() string { return "persona.account.register" }

// VerifyEmailMessage redeems an email verification token
type VerifyEmailMessage struct {
	Token      string `json:"token" example:"o6Yk2...Qm" doc:"Email verification token"`
	OnResponse func(account *Account)
}

func (m VerifyEmailMessage) Type() string { return "persona.email.verify" }

// ForgotPasswordMessage requests a password recovery token
type ForgotPasswordMessage struct {
	UID string `json:"uid" example:"pepe.rone@example.com" doc:"Any configured account identifier"`
}

func (m ForgotPasswordMessage) Type() string { return "persona.password.forgot" }

// RecoverPasswordMessage sets a new password using a recovery token
type RecoverPasswordMessage struct {
	Token      string  `json:"token" doc:"Password recovery token"`
	Payload    Payload `json:"payload"`
	OnResponse func(account *Account)
}

func (m RecoverPasswordMessage) Type() string { return "persona.password.recover" }

// txRunner runs a Persona operation inside a transaction with repositories
// bound to it. Events are published only after the commit.
type txRunner struct {
	repo    RepositoryManager
	persona *Persona
	logger  Logger
}

func (r txRunner) run(ctx context.Context, action string, fn func(ctx context.Context, svc *Persona) error) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	buffer := &eventBuffer{}

	err := r.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repos := r.repo.WithTx(tx)
		svc := r.persona.WithRepositories(repos.Accounts(), repos.Tokens())
		svc.publisher = buffer
		return fn(ctx, svc)
	})

	if err != nil {
		return commandError(err, action)
	}

	if err := buffer.flush(ctx, r.persona.publisher); err != nil {
		r.logger.Error("failed to publish events after commit", "action", action, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to publish "+action+" events")
	}

	return nil
}

// commandError keeps validation and rich errors intact and wraps the rest
func commandError(err error, action string) error {
	if verr, ok := AsValidationError(err); ok {
		return verr
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, action+" transaction failed")
}

func cancelled(ctx context.Context, action string) error {
	return goerrors.Wrap(
		ctx.Err(),
		goerrors.CategoryOperation,
		"context cancelled during "+action,
	)
}

// RegisterAccountHandler runs Register in a transaction
type RegisterAccountHandler struct {
	runner txRunner
}

// NewRegisterAccountHandler creates a handler with sane defaults.
func NewRegisterAccountHandler(repo RepositoryManager, persona *Persona) *RegisterAccountHandler {
	return &RegisterAccountHandler{runner: txRunner{repo: repo, persona: persona, logger: persona.logger}}
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.runner.logger = logger
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "account registration")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	var account *Account

	err := h.runner.run(ctx, "account registration", func(ctx context.Context, svc *Persona) error {
		var err error
		account, err = svc.Register(ctx, event.Payload, event.Prepare)
		return err
	})
	if err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(account)
	}

	return nil
}

// VerifyEmailHandler runs VerifyEmail in a transaction
type VerifyEmailHandler struct {
	runner txRunner
}

// NewVerifyEmailHandler creates a handler with sane defaults.
func NewVerifyEmailHandler(repo RepositoryManager, persona *Persona) *VerifyEmailHandler {
	return &VerifyEmailHandler{runner: txRunner{repo: repo, persona: persona, logger: persona.logger}}
}

// WithLogger overrides the logger used by the handler.
func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.runner.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	var account *Account

	err := h.runner.run(ctx, "email verification", func(ctx context.Context, svc *Persona) error {
		var err error
		account, err = svc.VerifyEmail(ctx, event.Token)
		return err
	})
	if err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(account)
	}

	return nil
}

// ForgotPasswordHandler runs ForgotPassword in a transaction
type ForgotPasswordHandler struct {
	runner txRunner
}

// NewForgotPasswordHandler creates a handler with sane defaults.
func NewForgotPasswordHandler(repo RepositoryManager, persona *Persona) *ForgotPasswordHandler {
	return &ForgotPasswordHandler{runner: txRunner{repo: repo, persona: persona, logger: persona.logger}}
}

// WithLogger overrides the logger used by the handler.
func (h *ForgotPasswordHandler) WithLogger(logger Logger) *ForgotPasswordHandler {
	if logger != nil {
		h.runner.logger = logger
	}
	return h
}

func (h *ForgotPasswordHandler) Execute(ctx context.Context, event ForgotPasswordMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "password recovery request")
	default:
		return h.runner.run(ctx, "password recovery request", func(ctx context.Context, svc *Persona) error {
			return svc.ForgotPassword(ctx, event.UID)
		})
	}
}

// RecoverPasswordHandler runs UpdatePasswordByToken in a transaction
type RecoverPasswordHandler struct {
	runner txRunner
}

// NewRecoverPasswordHandler creates a handler with sane defaults.
func NewRecoverPasswordHandler(repo RepositoryManager, persona *Persona) *RecoverPasswordHandler {
	return &RecoverPasswordHandler{runner: txRunner{repo: repo, persona: persona, logger: persona.logger}}
}

// WithLogger overrides the logger used by the handler.
func (h *RecoverPasswordHandler) WithLogger(logger Logger) *RecoverPasswordHandler {
	if logger != nil {
		h.runner.logger = logger
	}
	return h
}

func (h *RecoverPasswordHandler) Execute(ctx context.Context, event RecoverPasswordMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "password recovery")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RecoverPasswordHandler) execute(ctx context.Context, event RecoverPasswordMessage) error {
	var account *Account

	err := h.runner.run(ctx, "password recovery", func(ctx context.Context, svc *Persona) error {
		var err error
		account, err = svc.UpdatePasswordByToken(ctx, event.Token, event.Payload)
		return err
	})
	if err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(account)
	}

	return nil
}
