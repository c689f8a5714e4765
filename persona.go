package persona

import (
	"context"
	"maps"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// PrepareRegistration runs before a new account is persisted. It can add
// or change payload fields, an error aborts the registration.
type PrepareRegistration func(ctx context.Context, payload Payload) error

// VerifyCheck runs after the account is resolved and before the password
// is compared. An error aborts the login.
type VerifyCheck func(ctx context.Context, account *Account, password string) error

// Persona manages the account lifecycle: registration, login, email
// verification, profile and password changes, and password recovery.
type Persona struct {
	cfg            Config
	accounts       AccountRepository
	tokenRepo      TokenRepository
	tokens         *tokenStore
	credentials    credentialVerifier
	validator      *Validator
	hasher         Hasher
	encrypter      Encrypter
	publisher      EventPublisher
	messages       MessageProvider
	statusHooks    []StatusHook
	logger         Logger
	loggerProvider LoggerProvider
	now            func() time.Time
}

// New creates a Persona backed by the given repositories
func New(accounts AccountRepository, tokens TokenRepository, opts ...Option) (*Persona, error) {
	if accounts == nil || tokens == nil {
		return nil, goerrors.New("account and token repositories are required", goerrors.CategoryBadInput).
			WithTextCode(TextCodeInvalidConfig)
	}

	p := &Persona{
		cfg:       DefaultConfig(),
		accounts:  accounts,
		tokenRepo: tokens,
		publisher: noopEventPublisher{},
		now:       time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	if err := p.checkUIDColumns(); err != nil {
		return nil, err
	}

	p.loggerProvider, p.logger = ResolveLogger("persona", p.loggerProvider, p.logger)

	if p.hasher == nil {
		p.hasher = NewBcryptHasher(p.cfg.BcryptCost)
	}

	if p.encrypter == nil {
		enc, err := NewAESEncrypter(p.cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		p.encrypter = enc
	}

	p.bind()

	return p, nil
}

func (p *Persona) checkUIDColumns() error {
	checker, ok := p.accounts.(UIDChecker)
	if !ok {
		return nil
	}

	for _, field := range p.cfg.UIDs {
		if checker.SupportsUID(p.column(field)) {
			continue
		}
		return goerrors.New("invalid persona configuration", goerrors.CategoryBadInput).
			WithTextCode(TextCodeInvalidConfig).
			WithMetadata(map[string]any{
				"reason": "uid field is not supported by the account store",
				"field":  field,
			})
	}

	return nil
}

func (p *Persona) bind() {
	p.validator = NewValidator(p.isTaken, p.messages)
	p.credentials = credentialVerifier{hasher: p.hasher, validator: p.validator}
	p.tokens = &tokenStore{
		tokens:     p.tokenRepo,
		encrypter:  p.encrypter,
		now:        p.now,
		dateFormat: p.cfg.DateFormat,
		logger:     p.logger,
	}
}

// WithRepositories returns a copy of p using the given repositories,
// e.g. ones bound to a transaction.
func (p *Persona) WithRepositories(accounts AccountRepository, tokens TokenRepository) *Persona {
	cp := *p
	if accounts != nil {
		cp.accounts = accounts
	}
	if tokens != nil {
		cp.tokenRepo = tokens
	}
	cp.bind()
	return &cp
}

// Config returns a copy of the configuration
func (p *Persona) Config() Config {
	return p.cfg.clone()
}

// Table returns the account table name
func (p *Persona) Table() string {
	return p.cfg.Table
}

// Model returns the account entity name
func (p *Persona) Model() string {
	return p.cfg.Model
}

// GetMessages returns the custom messages for action, or an empty map
func (p *Persona) GetMessages(action string) map[string]string {
	return p.validator.Messages(action)
}

// RegistrationRules returns the rules applied by Register
func (p *Persona) RegistrationRules() Rules {
	return p.cfg.RegistrationRules()
}

// UpdateEmailRules returns the rules applied by UpdateEmail for account
func (p *Persona) UpdateEmailRules(account *Account) Rules {
	return p.cfg.UpdateEmailRules(account)
}

// UpdatePasswordRules returns the rules applied by UpdatePassword, or by
// UpdatePasswordByToken when enforceOldPassword is false
func (p *Persona) UpdatePasswordRules(enforceOldPassword bool) Rules {
	return p.cfg.UpdatePasswordRules(enforceOldPassword)
}

// LoginRules returns the rules applied by Verify
func (p *Persona) LoginRules() Rules {
	return p.cfg.LoginRules()
}

// Register validates payload, creates a pending account and mints its
// email verification token.
func (p *Persona) Register(ctx context.Context, payload Payload, prepare PrepareRegistration) (*Account, error) {
	if err := p.validator.Validate(ctx, ActionRegister, payload, p.RegistrationRules()); err != nil {
		return nil, err
	}

	data := payload.Clone()
	delete(data, p.cfg.PasswordConfirmationField())
	data[FieldAccountStatus] = p.cfg.NewAccountState

	if prepare != nil {
		if err := prepare(ctx, data); err != nil {
			return nil, err
		}
	}

	account, err := p.newAccount(ctx, data)
	if err != nil {
		return nil, err
	}

	account, err = p.accounts.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	token, err := p.tokens.GenerateToken(ctx, account, TokenTypeEmail)
	if err != nil {
		return nil, err
	}

	if err := p.publish(ctx, Event{Name: EventUserCreated, Account: account, Token: token}); err != nil {
		return nil, err
	}

	return account, nil
}

func (p *Persona) newAccount(ctx context.Context, data Payload) (*Account, error) {
	account := &Account{}
	status, _ := data.String(FieldAccountStatus)

	for _, key := range data.Keys() {
		switch column := p.column(key); column {
		case FieldPassword:
			if key != p.cfg.Password {
				continue
			}
			plain, _ := data.String(key)
			hash, err := p.hasher.Hash(plain)
			if err != nil {
				return nil, err
			}
			account.Password = hash
		case FieldAccountStatus:
		default:
			if err := account.Set(column, data[key]); err != nil {
				return nil, err
			}
		}
	}

	if p.cfg.UseHashid {
		id, err := hashid.NewUUID(account.Email)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive account id")
		}
		account.ID = id
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	if err := p.transition(ctx, account, status, StatusReasonRegistered); err != nil {
		return nil, err
	}

	return account, nil
}

// Verify checks login credentials and returns the matching account.
// check, when given, runs before the password comparison.
func (p *Persona) Verify(ctx context.Context, payload Payload, check VerifyCheck) (*Account, error) {
	if err := p.validator.Validate(ctx, ActionVerify, payload, p.LoginRules()); err != nil {
		return nil, err
	}

	uid, _ := payload.String(UIDField)
	account, err := p.findByUID(ctx, ActionVerify, uid)
	if err != nil {
		return nil, err
	}

	password, _ := payload.String(p.cfg.Password)

	if check != nil {
		if err := check(ctx, account, password); err != nil {
			return nil, err
		}
	}

	if err := p.credentials.verify(ctx, ActionVerify, password, account.Password, p.cfg.Password); err != nil {
		return nil, err
	}

	return account, nil
}

// VerifyEmail redeems an email token. A pending account becomes verified
// and the token is removed. Accounts in any other status are returned
// untouched and the token is kept.
func (p *Persona) VerifyEmail(ctx context.Context, token string) (*Account, error) {
	record, err := p.tokens.GetToken(ctx, token, TokenTypeEmail)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidToken
	}

	account := record.Account
	if account.AccountStatus != p.cfg.NewAccountState {
		p.logger.Debug("email token presented for account not pending", "account_id", account.ID, "status", account.AccountStatus)
		return account, nil
	}

	if err := p.transition(ctx, account, p.cfg.VerifiedAccountState, StatusReasonEmailVerified); err != nil {
		return nil, err
	}

	if err := p.tokens.RemoveToken(ctx, token, TokenTypeEmail); err != nil {
		return nil, err
	}

	return p.accounts.Update(ctx, account)
}

// UpdateEmail changes the account email, moves it back to the new account
// state and mints a fresh email token.
func (p *Persona) UpdateEmail(ctx context.Context, account *Account, newEmail string) (*Account, error) {
	if account == nil {
		return nil, goerrors.New("account is required", goerrors.CategoryBadInput)
	}

	payload := Payload{p.cfg.Email: newEmail}
	if err := p.validator.Validate(ctx, ActionUpdateEmail, payload, p.UpdateEmailRules(account)); err != nil {
		return nil, err
	}

	oldEmail := account.Email

	if err := p.transition(ctx, account, p.cfg.NewAccountState, StatusReasonEmailChanged); err != nil {
		return nil, err
	}
	account.Email = newEmail

	account, err := p.accounts.Update(ctx, account)
	if err != nil {
		return nil, err
	}

	token, err := p.tokens.GenerateToken(ctx, account, TokenTypeEmail)
	if err != nil {
		return nil, err
	}

	event := Event{
		Name:     EventEmailChanged,
		Account:  account,
		Token:    token,
		OldEmail: oldEmail,
	}
	if err := p.publish(ctx, event); err != nil {
		return nil, err
	}

	return account, nil
}

// UpdateProfile merges payload onto account. Password changes are
// rejected, status changes run the status hooks and email changes go
// through UpdateEmail. account is only modified once the update is saved.
func (p *Persona) UpdateProfile(ctx context.Context, account *Account, payload Payload) (*Account, error) {
	if account == nil {
		return nil, goerrors.New("account is required", goerrors.CategoryBadInput)
	}

	for key := range payload {
		if key == p.cfg.Password || p.column(key) == FieldPassword {
			return nil, ErrOperationNotAllowed
		}
	}

	merged := *account
	merged.Metadata = maps.Clone(account.Metadata)

	emailKey, statusKey := "", ""
	for _, key := range payload.Keys() {
		switch p.column(key) {
		case FieldEmail:
			emailKey = key
			continue
		case FieldAccountStatus:
			statusKey = key
			continue
		}
		if err := merged.Set(p.column(key), payload[key]); err != nil {
			return nil, err
		}
	}

	if statusKey != "" {
		status, ok := payload.String(statusKey)
		if !ok || status == "" {
			return nil, goerrors.New("account status must be a non empty string", goerrors.CategoryBadInput).
				WithTextCode(TextCodeInvalidAttribute).
				WithMetadata(map[string]any{"field": statusKey})
		}
		if err := p.transition(ctx, &merged, status, StatusReasonProfileUpdated); err != nil {
			return nil, err
		}
	}

	if payload.Has(p.cfg.Email) {
		emailKey = p.cfg.Email
	}

	var (
		updated *Account
		err     error
	)

	newEmail, isString := payload.String(emailKey)
	if emailKey != "" && (!isString || newEmail != account.Email) {
		updated, err = p.UpdateEmail(ctx, &merged, newEmail)
	} else {
		updated, err = p.accounts.Update(ctx, &merged)
	}
	if err != nil {
		return nil, err
	}

	*account = *updated
	return account, nil
}

// UpdatePassword changes the password after checking the old one
func (p *Persona) UpdatePassword(ctx context.Context, account *Account, payload Payload) (*Account, error) {
	if account == nil {
		return nil, goerrors.New("account is required", goerrors.CategoryBadInput)
	}

	if err := p.validator.Validate(ctx, ActionUpdatePassword, payload, p.UpdatePasswordRules(true)); err != nil {
		return nil, err
	}

	oldField := p.cfg.OldPasswordField()
	old, _ := payload.String(oldField)
	if err := p.credentials.verify(ctx, ActionUpdatePassword, old, account.Password, oldField); err != nil {
		return nil, err
	}

	if err := p.setPassword(account, payload); err != nil {
		return nil, err
	}

	account, err := p.accounts.Update(ctx, account)
	if err != nil {
		return nil, err
	}

	if err := p.publish(ctx, Event{Name: EventPasswordChanged, Account: account}); err != nil {
		return nil, err
	}

	return account, nil
}

// ForgotPassword mints a password recovery token for the account
// identified by uid.
func (p *Persona) ForgotPassword(ctx context.Context, uid string) error {
	account, err := p.findByUID(ctx, ActionForgotPassword, uid)
	if err != nil {
		return err
	}

	token, err := p.tokens.GenerateToken(ctx, account, TokenTypePassword)
	if err != nil {
		return err
	}

	return p.publish(ctx, Event{Name: EventForgotPassword, Account: account, Token: token})
}

// UpdatePasswordByToken redeems a password token and sets the new password
func (p *Persona) UpdatePasswordByToken(ctx context.Context, token string, payload Payload) (*Account, error) {
	if err := p.validator.Validate(ctx, ActionPasswordByToken, payload, p.UpdatePasswordRules(false)); err != nil {
		return nil, err
	}

	record, err := p.tokens.GetToken(ctx, token, TokenTypePassword)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidToken
	}

	account := record.Account
	if err := p.setPassword(account, payload); err != nil {
		return nil, err
	}

	account, err = p.accounts.Update(ctx, account)
	if err != nil {
		return nil, err
	}

	if err := p.tokens.RemoveToken(ctx, token, TokenTypePassword); err != nil {
		return nil, err
	}

	if err := p.publish(ctx, Event{Name: EventPasswordRecovered, Account: account}); err != nil {
		return nil, err
	}

	return account, nil
}

// GenerateToken returns the live token of tokenType for account, minting
// one when none exists.
func (p *Persona) GenerateToken(ctx context.Context, account *Account, tokenType TokenType) (string, error) {
	return p.tokens.GenerateToken(ctx, account, tokenType)
}

// GetToken returns the live token matching value and tokenType, or nil
func (p *Persona) GetToken(ctx context.Context, value string, tokenType TokenType) (*Token, error) {
	return p.tokens.GetToken(ctx, value, tokenType)
}

// RemoveToken deletes every token matching value and tokenType
func (p *Persona) RemoveToken(ctx context.Context, value string, tokenType TokenType) error {
	return p.tokens.RemoveToken(ctx, value, tokenType)
}

func (p *Persona) setPassword(account *Account, payload Payload) error {
	plain, _ := payload.String(p.cfg.Password)
	hash, err := p.hasher.Hash(plain)
	if err != nil {
		return err
	}
	account.Password = hash
	return nil
}

func (p *Persona) findByUID(ctx context.Context, action, uid string) (*Account, error) {
	notFound := func() error {
		return NewValidationError(FieldError{
			Field:      UIDField,
			Validation: ValidationExists,
			Message:    resolveMessage(p.validator.Messages(action), UIDField, ValidationExists, nil),
		})
	}

	if uid == "" {
		return nil, notFound()
	}

	columns := make([]string, 0, len(p.cfg.UIDs))
	for _, f := range p.cfg.UIDs {
		columns = append(columns, p.column(f))
	}

	account, err := p.accounts.FindByUID(ctx, columns, uid)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, notFound()
		}
		return nil, err
	}

	return account, nil
}

func (p *Persona) isTaken(ctx context.Context, field, value string, exclude uuid.UUID) (bool, error) {
	return p.accounts.Exists(ctx, p.column(field), value, exclude)
}

// column maps a configured field name to the Account column holding it
func (p *Persona) column(field string) string {
	switch field {
	case p.cfg.Email:
		return FieldEmail
	case p.cfg.Password:
		return FieldPassword
	}
	return field
}

func (p *Persona) publish(ctx context.Context, event Event) error {
	event.OccurredAt = p.now()
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Error("failed to publish event", "event", event.Name, "error", err)
		return err
	}
	return nil
}
