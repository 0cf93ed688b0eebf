package i18n

import (
	"net/http"
	"time"
)

const (
	// LangParam is the query parameter that selects a language.
	LangParam = "lang"
	// LangCookieName stores the visitor's language choice.
	LangCookieName = "lang"
)

type Persister interface {
	SaveLanguage(lang Lang) error
}

type PersisterFunc func(lang Lang) error

func (f PersisterFunc) SaveLanguage(lang Lang) error {
	return f(lang)
}

// CookiePersister remembers the language in a year-long cookie and mirrors
// it in the Content-Language header.
type CookiePersister struct {
	W http.ResponseWriter
}

func (p CookiePersister) SaveLanguage(lang Lang) error {
	if p.W == nil {
		return nil
	}
	http.SetCookie(p.W, &http.Cookie{
		Name:     LangCookieName,
		Value:    string(lang),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	p.W.Header().Set("Content-Language", string(lang))
	return nil
}
