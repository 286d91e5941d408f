package result

import (
	"sort"

	"golang.org/x/text/language"
)

// Localized holds one text per BCP 47 language tag, e.g. {"en": "...", "uz": "..."}.
type Localized map[string]string

// Text returns the variant best matching want. When nothing matches
// reasonably, the fallback language is used, then any available text.
func (l Localized) Text(want, fallback language.Tag) string {
	if len(l) == 0 {
		return ""
	}

	keys := make([]string, 0, len(l))
	for key := range l {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// A text in the requested base language beats the matcher, which ranks
	// script over language and would send uz-Cyrl to ru.
	if want != language.Und {
		if text, ok := l.sameBase(keys, want); ok {
			return text
		}
	}

	// The matcher falls back to its first tag, so put the fallback first.
	tags := make([]language.Tag, 0, len(keys))
	texts := make([]string, 0, len(keys))
	fallbackBase, _ := fallback.Base()
	for _, key := range keys {
		tag, err := language.Parse(key)
		if err != nil {
			continue
		}
		base, _ := tag.Base()
		if base == fallbackBase && len(tags) > 0 {
			tags = append([]language.Tag{tag}, tags...)
			texts = append([]string{l[key]}, texts...)
			continue
		}
		tags = append(tags, tag)
		texts = append(texts, l[key])
	}
	if len(tags) == 0 {
		return l[keys[0]]
	}

	_, idx, _ := language.NewMatcher(tags).Match(want)
	return texts[idx]
}

// sameBase returns the text tagged exactly want, else the first text whose
// base language equals want's.
func (l Localized) sameBase(keys []string, want language.Tag) (string, bool) {
	wantBase, _ := want.Base()
	text, found := "", false
	for _, key := range keys {
		tag, err := language.Parse(key)
		if err != nil {
			continue
		}
		if tag == want {
			return l[key], true
		}
		if base, _ := tag.Base(); base == wantBase && !found {
			text, found = l[key], true
		}
	}
	return text, found
}

func (l Localized) validate() error {
	for key := range l {
		if _, err := language.Parse(key); err != nil {
			return err
		}
	}
	return nil
}
