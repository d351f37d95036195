package internal

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Language is the locale forwarded to the assistant workflow
type Language string

const (
	LanguageEN Language = "EN"
	LanguageFR Language = "FR"
	LanguageDE Language = "DE"
	LanguageNL Language = "NL"
)

// SupportedLanguages lists the locales the assistant understands
var SupportedLanguages = []Language{LanguageEN, LanguageFR, LanguageDE, LanguageNL}

// ParseLanguage normalizes a language code ("fr", " DE ") to a Language
func ParseLanguage(code string) (Language, error) {
	lang := Language(strings.ToUpper(strings.TrimSpace(code)))
	for _, l := range SupportedLanguages {
		if l == lang {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
}

// ConnectionStatus is the tri-state reachability of the assistant endpoint
type ConnectionStatus string

const (
	StatusChecking     ConnectionStatus = "checking"
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Document is an uploaded reference manual. Payload is a data URL so the
// MIME type travels with the bytes.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Payload    string    `json:"url"`
	UploadDate string    `json:"uploadDate"`
	AddedAt    time.Time `json:"addedAt"`
}

const uploadDateLayout = "2006-01-02"
