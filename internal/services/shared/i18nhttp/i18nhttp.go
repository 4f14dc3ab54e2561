// Package i18nhttp resolves the display locale of an HTTP request.
package i18nhttp

import (
	"net/http"
	"strings"

	"github.com/keeperdesk/keeperdesk/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "kd_lang"
)

// Supported returns the catalog locales as language tags, base locale first.
func Supported() []language.Tag {
	tags := []language.Tag{language.MustParse(catalog.BaseLocale)}
	for _, locale := range catalog.Default().Locales() {
		if locale == catalog.BaseLocale {
			continue
		}
		if tag, err := language.Parse(locale); err == nil {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ResolveLocale picks the catalog locale for the request from the lang query
// parameter, then the language cookie, then Accept-Language, then fallback.
func ResolveLocale(r *http.Request, fallback string) string {
	if strings.TrimSpace(fallback) == "" {
		fallback = catalog.BaseLocale
	}
	if r == nil {
		return fallback
	}
	if value := strings.TrimSpace(r.URL.Query().Get(LangParam)); value != "" {
		if locale, ok := match(value); ok {
			return locale
		}
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if locale, ok := match(cookie.Value); ok {
			return locale
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			supported := Supported()
			_, index, confidence := language.NewMatcher(supported).Match(tags...)
			if confidence != language.No {
				return supported[index].String()
			}
		}
	}
	return fallback
}

func match(value string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", false
	}
	supported := Supported()
	_, index, confidence := language.NewMatcher(supported).Match(tag)
	if confidence == language.No {
		return "", false
	}
	return supported[index].String(), true
}
