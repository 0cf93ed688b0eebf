// Package i18n loads the site's translation dictionaries and resolves
// dot-path keys with cross-language fallback.
package i18n

import (
	"embed"
	"errors"
	"io/fs"
	"strings"

	"golang.org/x/text/language"
)

// Lang is a base language subtag such as "hr".
type Lang string

const (
	Croatian Lang = "hr"
	German   Lang = "de"
)

var ErrUnsupportedLanguage = errors.New("i18n: unsupported language")

//go:embed locales/*.json
var embeddedLocales embed.FS

// Resource ties a language to its dictionary file inside the registry FS.
type Resource struct {
	Lang Lang
	Path string
}

// Registry is the fixed set of supported languages. Order matters: the
// first resource is the default language and the order is the fallback
// chain used by Store.T.
type Registry struct {
	fsys      fs.FS
	resources []Resource
}

func NewRegistry(fsys fs.FS, resources ...Resource) Registry {
	return Registry{fsys: fsys, resources: resources}
}

// DefaultRegistry serves the embedded Croatian and German dictionaries.
func DefaultRegistry() Registry {
	return NewRegistry(embeddedLocales,
		Resource{Lang: Croatian, Path: "locales/hr.json"},
		Resource{Lang: German, Path: "locales/de.json"},
	)
}

// WithDefault returns a copy of the registry with lang moved to the front.
// Unsupported languages leave the registry unchanged.
func (r Registry) WithDefault(lang Lang) Registry {
	res, ok := r.resource(lang)
	if !ok {
		return r
	}
	out := Registry{fsys: r.fsys, resources: []Resource{res}}
	for _, other := range r.resources {
		if other.Lang != lang {
			out.resources = append(out.resources, other)
		}
	}
	return out
}

func (r Registry) Default() Lang {
	if len(r.resources) == 0 {
		return ""
	}
	return r.resources[0].Lang
}

func (r Registry) Languages() []Lang {
	out := make([]Lang, len(r.resources))
	for i, res := range r.resources {
		out[i] = res.Lang
	}
	return out
}

func (r Registry) Supports(lang Lang) bool {
	_, ok := r.resource(lang)
	return ok
}

// Parse reads a BCP 47 tag ("de-AT", "HR") and returns its base language
// when supported.
func (r Registry) Parse(value string) (Lang, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	lang := Lang(base.String())
	return lang, r.Supports(lang)
}

// Normalize maps any input to a supported language, defaulting when unknown.
func (r Registry) Normalize(value string) Lang {
	if lang, ok := r.Parse(value); ok {
		return lang
	}
	return r.Default()
}

// Match picks the best supported language for an Accept-Language header.
func (r Registry) Match(acceptLanguage string) (Lang, bool) {
	if len(r.resources) == 0 {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return r.Default(), false
	}

	supported := make([]language.Tag, len(r.resources))
	for i, res := range r.resources {
		supported[i] = language.Make(string(res.Lang))
	}
	_, index, confidence := language.NewMatcher(supported).Match(tags...)
	if confidence == language.No {
		return r.Default(), false
	}
	return r.resources[index].Lang, true
}

// chain lists lang followed by every other language in registry order.
func (r Registry) chain(lang Lang) []Lang {
	out := make([]Lang, 0, len(r.resources))
	if r.Supports(lang) {
		out = append(out, lang)
	}
	for _, res := range r.resources {
		if res.Lang != lang {
			out = append(out, res.Lang)
		}
	}
	return out
}

func (r Registry) resource(lang Lang) (Resource, bool) {
	for _, res := range r.resources {
		if res.Lang == lang {
			return res, true
		}
	}
	return Resource{}, false
}
