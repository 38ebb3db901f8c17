package service

import (
	"regexp"
	"strings"

	"club-portal/pkg/apierror"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

// fieldRule is one entry of the static validation table evaluated before any
// persistence attempt.
type fieldRule struct {
	field    string
	required bool
	validate func(string) bool
	message  string
}

func validateFields(rules []fieldRule, values map[string]string) error {
	for _, rule := range rules {
		value := strings.TrimSpace(values[rule.field])
		if value == "" {
			if rule.required {
				return apierror.Validation(rule.field+" is required", rule.field)
			}
			continue
		}
		if rule.validate != nil && !rule.validate(value) {
			return apierror.Validation(rule.message, rule.field)
		}
	}
	return nil
}

func emailDomainAllowed(email string, allowedDomains []string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, allowed := range allowedDomains {
		if domain == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func validUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

func strongEnoughPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 72
}
