package persona

import (
	"regexp"
	"strconv"
)

// Actions passed to the message provider
const (
	ActionRegister        = "register"
	ActionVerify          = "verify"
	ActionUpdateEmail     = "updateEmail"
	ActionUpdatePassword  = "updatePassword"
	ActionForgotPassword  = "forgotPassword"
	ActionPasswordByToken = "passwordByToken"
)

// DefaultMessageTemplate is used when no message is configured
const DefaultMessageTemplate = "{{ validation }} validation failed on {{ field }}"

var defaultMessages = map[string]string{
	UIDField + "." + ValidationExists: "Unable to locate user",
	ValidationMisMatch:                "Invalid password",
}

// MessageProvider returns the custom messages of an action, keyed by
// "field.validation" or "validation"
type MessageProvider func(action string) map[string]string

var placeholderRe = regexp.MustCompile(`{{\s*(field|validation|argument\.(\d+))\s*}}`)

// resolveMessage picks the most specific template for field/validation
// and interpolates its placeholders.
func resolveMessage(messages map[string]string, field, validation string, args []string) string {
	tpl := lookupTemplate(messages, field, validation)
	return placeholderRe.ReplaceAllStringFunc(tpl, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		switch {
		case sub[1] == "field":
			return field
		case sub[1] == "validation":
			return validation
		case sub[2] != "":
			i, err := strconv.Atoi(sub[2])
			if err != nil || i >= len(args) {
				return ""
			}
			return args[i]
		}
		return m
	})
}

func lookupTemplate(messages map[string]string, field, validation string) string {
	key := field + "." + validation
	for _, source := range []map[string]string{messages, defaultMessages} {
		if tpl, ok := source[key]; ok {
			return tpl
		}
		if tpl, ok := source[validation]; ok {
			return tpl
		}
	}
	return DefaultMessageTemplate
}
