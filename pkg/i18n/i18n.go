// Package i18n resolves the storefront language and renders the Arabic and
// English messages surfaced to shoppers.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

type Lang string

const (
	LangAR Lang = "ar"
	LangEN Lang = "en"
)

var supported = []language.Tag{language.Arabic, language.English}

var matcher = language.NewMatcher(supported)

// ParseLang maps a raw code to a supported language, falling back to fallback.
func ParseLang(value string, fallback Lang) Lang {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(LangAR):
		return LangAR
	case string(LangEN):
		return LangEN
	}
	return fallback
}

// FromAcceptLanguage negotiates an Accept-Language header against ar/en.
func FromAcceptLanguage(header string, fallback Lang) Lang {
	if strings.TrimSpace(header) == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	if supported[idx] == language.English {
		return LangEN
	}
	return LangAR
}

type ctxKey struct{}

// WithLang stores lang on ctx.
func WithLang(ctx context.Context, lang Lang) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, lang)
}

// FromContext returns the request language, defaulting to Arabic.
func FromContext(ctx context.Context) Lang {
	if ctx == nil {
		return LangAR
	}
	if lang, ok := ctx.Value(ctxKey{}).(Lang); ok && lang != "" {
		return lang
	}
	return LangAR
}
