package i18n

import "sort"

// MissingKeys reports, per language, the keys some other language defines
// but it does not. Languages with full coverage are omitted.
func (b *Bundle) MissingKeys() map[Lang][]string {
	langs := b.registry.Languages()
	present := make(map[Lang]map[string]bool, len(langs))
	all := map[string]bool{}

	for _, lang := range langs {
		keys := b.Dictionary(lang).Keys()
		set := make(map[string]bool, len(keys))
		for _, k := range keys {
			set[k] = true
			all[k] = true
		}
		present[lang] = set
	}

	out := map[Lang][]string{}
	for _, lang := range langs {
		var missing []string
		for k := range all {
			if !present[lang][k] {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			out[lang] = missing
		}
	}
	return out
}
