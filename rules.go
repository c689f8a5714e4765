package persona

import (
	"strings"

	"github.com/google/uuid"
)

// Constraint is one declared validation on a field, e.g. unique:users,email
type Constraint struct {
	Kind string
	Args []string
}

func (c Constraint) String() string {
	if len(c.Args) == 0 {
		return c.Kind
	}
	return c.Kind + ":" + strings.Join(c.Args, ",")
}

// Required fails on missing or empty values
func Required() Constraint {
	return Constraint{Kind: ValidationRequired}
}

// EmailShape fails when the value is not a well formed email address
func EmailShape() Constraint {
	return Constraint{Kind: ValidationEmail}
}

// Unique fails when another account holds the value in column.
// A non nil except id leaves that account out of the check.
func Unique(table, column string, except uuid.UUID) Constraint {
	args := []string{table, column}
	if except != uuid.Nil {
		args = append(args, FieldID, except.String())
	}
	return Constraint{Kind: ValidationUnique, Args: args}
}

// Confirmed fails when the value differs from the confirmation field
func Confirmed(confirmationField string) Constraint {
	return Constraint{Kind: ValidationConfirmed, Args: []string{confirmationField}}
}

// FieldRules are the constraints of a single field, checked in order
type FieldRules struct {
	Field       string
	Constraints []Constraint
}

// Has reports whether the field declares a constraint of kind
func (f FieldRules) Has(kind string) bool {
	_, ok := f.Get(kind)
	return ok
}

// Get returns the first constraint of kind
func (f FieldRules) Get(kind string) (Constraint, bool) {
	for _, c := range f.Constraints {
		if c.Kind == kind {
			return c, true
		}
	}
	return Constraint{}, false
}

func (f FieldRules) String() string {
	parts := make([]string, 0, len(f.Constraints))
	for _, c := range f.Constraints {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, "|")
}

// Rules is an ordered rule set. Fields are validated in declaration order.
type Rules []FieldRules

// Get returns the rules declared for field
func (r Rules) Get(field string) (FieldRules, bool) {
	for _, f := range r {
		if f.Field == field {
			return f, true
		}
	}
	return FieldRules{}, false
}

// Fields returns the declared field names in order
func (r Rules) Fields() []string {
	out := make([]string, 0, len(r))
	for _, f := range r {
		out = append(out, f.Field)
	}
	return out
}

// Map renders the rule set in pipe notation, e.g. "required|email"
func (r Rules) Map() map[string]string {
	out := make(map[string]string, len(r))
	for _, f := range r {
		out[f.Field] = f.String()
	}
	return out
}

// UIDField is the login/recovery payload key holding any uid value
const UIDField = "uid"

// RegistrationRules declares the password rule followed by one rule per
// uid field, in configured order.
func (c Config) RegistrationRules() Rules {
	rules := make(Rules, 0, len(c.UIDs)+1)
	rules = append(rules, FieldRules{
		Field:       c.Password,
		Constraints: []Constraint{Required(), Confirmed(c.PasswordConfirmationField())},
	})

	for _, uid := range c.UIDs {
		constraints := []Constraint{Required()}
		if uid == c.Email {
			constraints = append(constraints, EmailShape())
		}
		constraints = append(constraints, Unique(c.Table, uid, uuid.Nil))
		rules = append(rules, FieldRules{Field: uid, Constraints: constraints})
	}

	return rules
}

// UpdateEmailRules declares the email rule, ignoring account's own row
// in the uniqueness check.
func (c Config) UpdateEmailRules(account *Account) Rules {
	except := uuid.Nil
	if account != nil {
		except = account.ID
	}

	return Rules{{
		Field:       c.Email,
		Constraints: []Constraint{Required(), EmailShape(), Unique(c.Table, c.Email, except)},
	}}
}

// UpdatePasswordRules declares the new password rule, preceded by the old
// password rule when enforceOldPassword is set.
func (c Config) UpdatePasswordRules(enforceOldPassword bool) Rules {
	rules := Rules{}
	if enforceOldPassword {
		rules = append(rules, FieldRules{
			Field:       c.OldPasswordField(),
			Constraints: []Constraint{Required()},
		})
	}

	return append(rules, FieldRules{
		Field:       c.Password,
		Constraints: []Constraint{Required(), Confirmed(c.PasswordConfirmationField())},
	})
}

// LoginRules declares the uid and password rules
func (c Config) LoginRules() Rules {
	return Rules{
		{Field: UIDField, Constraints: []Constraint{Required()}},
		{Field: c.Password, Constraints: []Constraint{Required()}},
	}
}
