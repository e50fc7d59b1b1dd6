// Package template renders notification messages from named templates with
// literal placeholder substitution. No templating engine: placeholders are
// plain substrings and unknown ones must survive untouched.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/medagenda/syncengine/internal/core/domain"
)

// Placeholders is the full set custom templates may reference.
var Placeholders = []string{"{patient}", "{data}", "{ora}"}

var placeholderPattern = regexp.MustCompile(`\{[a-zA-Z_]+\}`)

var defaults = map[domain.NotificationType]string{
	domain.NotificationTypeConfirmation: "Gentile {patient}, il suo appuntamento è confermato per il {data} alle {ora}.",
	domain.NotificationTypeReminder:     "Gentile {patient}, le ricordiamo l'appuntamento del {data} alle {ora}.",
	domain.NotificationTypeUpdate:       "Gentile {patient}, il suo appuntamento è stato spostato al {data} alle {ora}.",
	domain.NotificationTypeCancel:       "Gentile {patient}, il suo appuntamento del {data} alle {ora} è stato annullato.",
	domain.NotificationTypeCustom:       "Gentile {patient}, ha una nuova comunicazione dal suo ambulatorio.",
}

// Resolver holds the user-editable template set on top of the built-in
// defaults.
type Resolver struct {
	custom map[domain.NotificationType]string
}

// NewResolver validates the custom templates and builds a resolver.
// Templates referencing placeholders outside the known set are rejected at
// load time; at render time they would silently stay in the message.
func NewResolver(custom map[string]string) (*Resolver, error) {
	templates := make(map[domain.NotificationType]string, len(custom))
	for name, text := range custom {
		if err := ValidateTemplate(text); err != nil {
			return nil, fmt.Errorf("template %q: %w", name, err)
		}
		templates[domain.NotificationType(name)] = text
	}
	return &Resolver{custom: templates}, nil
}

// ValidateTemplate checks that every placeholder in text belongs to the
// known set.
func ValidateTemplate(text string) error {
	for _, token := range placeholderPattern.FindAllString(text, -1) {
		known := false
		for _, p := range Placeholders {
			if token == p {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown placeholder %s (known: %s)", token, strings.Join(Placeholders, ", "))
		}
	}
	return nil
}

// Render resolves the template for msgType (custom set first, then the
// built-in default) and substitutes every placeholder present in vars.
// Placeholders without a matching var are left intact. Pure and synchronous.
func (r *Resolver) Render(msgType domain.NotificationType, vars map[string]string) string {
	text, ok := r.custom[msgType]
	if !ok {
		text = defaults[msgType]
	}
	for key, value := range vars {
		text = strings.ReplaceAll(text, "{"+key+"}", value)
	}
	return text
}
