package persona

import (
	"slices"
	"time"
)

// Option customizes a Persona at construction
type Option func(*Persona)

// WithConfig replaces the whole configuration
func WithConfig(cfg Config) Option {
	return func(p *Persona) {
		p.cfg = cfg.clone()
	}
}

// WithUIDs sets the fields that can identify an account, in lookup order
func WithUIDs(uids ...string) Option {
	return func(p *Persona) {
		if len(uids) > 0 {
			p.cfg.UIDs = slices.Clone(uids)
		}
	}
}

// WithEmailField sets which uid holds the email address
func WithEmailField(field string) Option {
	return func(p *Persona) {
		if field != "" {
			p.cfg.Email = field
		}
	}
}

// WithPasswordField sets the credential field name
func WithPasswordField(field string) Option {
	return func(p *Persona) {
		if field != "" {
			p.cfg.Password = field
		}
	}
}

// WithTable sets the account table used by unique rules
func WithTable(table string) Option {
	return func(p *Persona) {
		if table != "" {
			p.cfg.Table = table
		}
	}
}

// WithModel sets the account entity name
func WithModel(model string) Option {
	return func(p *Persona) {
		if model != "" {
			p.cfg.Model = model
		}
	}
}

// WithAccountStates sets the labels written for new and verified accounts
func WithAccountStates(newState, verifiedState string) Option {
	return func(p *Persona) {
		if newState != "" {
			p.cfg.NewAccountState = newState
		}
		if verifiedState != "" {
			p.cfg.VerifiedAccountState = verifiedState
		}
	}
}

// WithDateFormat sets the layout used to compare token timestamps
func WithDateFormat(layout string) Option {
	return func(p *Persona) {
		if layout != "" {
			p.cfg.DateFormat = layout
		}
	}
}

// WithMessages sets the custom validation message provider
func WithMessages(provider MessageProvider) Option {
	return func(p *Persona) {
		p.messages = provider
	}
}

// WithHasher overrides the bcrypt hasher
func WithHasher(hasher Hasher) Option {
	return func(p *Persona) {
		if hasher != nil {
			p.hasher = hasher
		}
	}
}

// WithEncrypter overrides the AES token encrypter
func WithEncrypter(encrypter Encrypter) Option {
	return func(p *Persona) {
		if encrypter != nil {
			p.encrypter = encrypter
		}
	}
}

// WithEventPublisher sets where lifecycle events are published
func WithEventPublisher(publisher EventPublisher) Option {
	return func(p *Persona) {
		p.publisher = normalizeEventPublisher(publisher)
	}
}

// WithLogger sets the logger
func WithLogger(logger Logger) Option {
	return func(p *Persona) {
		p.logger = logger
	}
}

// WithLoggerProvider sets the provider used to resolve the logger
func WithLoggerProvider(provider LoggerProvider) Option {
	return func(p *Persona) {
		p.loggerProvider = provider
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(p *Persona) {
		if clock != nil {
			p.now = clock
		}
	}
}

// WithHashidIdentifiers derives new account ids from their email
func WithHashidIdentifiers() Option {
	return func(p *Persona) {
		p.cfg.UseHashid = true
	}
}

// WithStatusHooks adds hooks executed before a status transition is persisted.
func WithStatusHooks(hooks ...StatusHook) Option {
	return func(p *Persona) {
		for _, h := range hooks {
			if h != nil {
				p.statusHooks = append(p.statusHooks, h)
			}
		}
	}
}
