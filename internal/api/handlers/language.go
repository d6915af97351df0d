package handlers

import (
	"context"

	"golang.org/x/text/language"

	"github.com/hoanghai1803/bookshelf/internal/readinglists"
)

var matcher = language.NewMatcher(readinglists.SupportedLanguages)

type languageKey struct{}

// MatchLanguage picks the supported language that best fits an
// Accept-Language header. It falls back to English.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return readinglists.SupportedLanguages[0]
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return readinglists.SupportedLanguages[0]
	}
	return readinglists.SupportedLanguages[idx]
}

// WithLanguage returns a context carrying the response language.
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, languageKey{}, tag)
}

// LanguageFrom returns the response language stored in ctx, or English.
func LanguageFrom(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(languageKey{}).(language.Tag); ok {
		return tag
	}
	return readinglists.SupportedLanguages[0]
}
