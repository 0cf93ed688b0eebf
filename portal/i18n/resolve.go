package i18n

import (
	"net/http"
	"strings"
)

// Resolve picks the language for a request: ?lang=, then the language
// cookie, then Accept-Language, then the registry default. The bool is true
// when the choice came from the query and should be persisted.
func Resolve(r *http.Request, reg Registry) (Lang, bool) {
	if r == nil {
		return reg.Default(), false
	}

	if value := strings.TrimSpace(r.URL.Query().Get(LangParam)); value != "" {
		if lang, ok := reg.Parse(value); ok {
			return lang, true
		}
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if lang, ok := reg.Parse(cookie.Value); ok {
			return lang, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if lang, ok := reg.Match(accept); ok {
			return lang, false
		}
	}

	return reg.Default(), false
}
