// Package language provides per-language marker tables for chapter boundary
// detection.
//
// A marker is a literal phrase whose presence in a transcript line signals a
// chapter-type transition. Each language also carries a set of excluded
// phrases that suppress an otherwise-valid match, guarding against narration
// that merely mentions a chapter ("at the end of this chapter...").
package language

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/chapterdapp/chapterd/internal/errors"
)

// Marker positions within a table. Index 0 and 1 are alternate spellings for
// the prologue, index 2 is the chapter literal, index 3 is the epilogue.
const (
	MarkerPrologue = iota
	MarkerPrologueAlt
	MarkerChapter
	MarkerEpilogue
)

// Table holds the lexical markers for one language. Tables are loaded once
// per run and never mutated.
type Table struct {
	// Tag is the canonical BCP 47 tag for this table.
	Tag language.Tag
	// Markers is the ordered 4-tuple of marker phrases, stored lowercase.
	// Callers fold lines to lowercase before substring matching.
	Markers [4]string
	// Excluded phrases suppress a match when present on the same line.
	Excluded []string
}

// tables is the static per-language configuration. Markers are lowercase
// because transcription output is lowercased narration text.
var tables = map[language.Tag]Table{
	language.AmericanEnglish: {
		Tag:     language.AmericanEnglish,
		Markers: [4]string{"prologue", "preface", "chapter", "epilogue"},
		Excluded: []string{
			"end of chapter",
			"end of the chapter",
			"in this chapter",
			"in the next chapter",
			"in the last chapter",
		},
	},
	language.Spanish: {
		Tag:     language.Spanish,
		Markers: [4]string{"prólogo", "prefacio", "capítulo", "epílogo"},
		Excluded: []string{
			"fin del capítulo",
			"en este capítulo",
			"en el próximo capítulo",
		},
	},
	language.German: {
		Tag:     language.German,
		Markers: [4]string{"prolog", "vorwort", "kapitel", "epilog"},
		Excluded: []string{
			"ende des kapitels",
			"in diesem kapitel",
			"im nächsten kapitel",
		},
	},
	language.French: {
		Tag:     language.French,
		Markers: [4]string{"prologue", "préface", "chapitre", "épilogue"},
		Excluded: []string{
			"fin du chapitre",
			"dans ce chapitre",
			"dans le prochain chapitre",
		},
	},
	language.Italian: {
		Tag:     language.Italian,
		Markers: [4]string{"prologo", "prefazione", "capitolo", "epilogo"},
		Excluded: []string{
			"fine del capitolo",
			"in questo capitolo",
			"nel prossimo capitolo",
		},
	},
	language.BrazilianPortuguese: {
		Tag:     language.BrazilianPortuguese,
		Markers: [4]string{"prólogo", "prefácio", "capítulo", "epílogo"},
		Excluded: []string{
			"fim do capítulo",
			"neste capítulo",
			"no próximo capítulo",
		},
	},
}

// englishNames maps spelled-out language names to tags, so "english" works as
// well as "en" or "en-US".
var englishNames = map[string]language.Tag{
	"english":    language.AmericanEnglish,
	"spanish":    language.Spanish,
	"german":     language.German,
	"french":     language.French,
	"italian":    language.Italian,
	"portuguese": language.BrazilianPortuguese,
}

// matcher resolves arbitrary BCP 47 input against the configured tables.
var matcher language.Matcher

func init() {
	tags := make([]language.Tag, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })
	matcher = language.NewMatcher(tags)
}

// Lookup returns the marker table for a language code or English name.
// Codes are matched loosely: "en", "en-US", "en_GB", and "english" all
// resolve to the American English table. An unconfigured language returns
// ErrUnsupportedLang; callers treat that as fatal before the engine runs.
func Lookup(code string) (Table, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Table{}, errors.UnsupportedLanguage("language code is empty")
	}

	if tag, ok := englishNames[strings.ToLower(code)]; ok {
		return tables[tag], nil
	}

	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return Table{}, errors.UnsupportedLanguage("unrecognized language code: " + code)
	}

	// The matcher's result index follows the tag order passed to NewMatcher.
	// Its confidence is not trustworthy for tags outside the configured set
	// (it still nominates a fallback), so require the base language of the
	// match to equal the base language requested.
	_, index, _ := matcher.Match(tag)
	tags := supportedTags()
	matched := tags[index]

	wantBase, _ := tag.Base()
	gotBase, _ := matched.Base()
	if wantBase != gotBase {
		return Table{}, errors.UnsupportedLanguage("no marker table configured for language: " + code)
	}

	return tables[matched], nil
}

// Supported returns the canonical codes of all configured tables, sorted.
func Supported() []string {
	tags := supportedTags()
	codes := make([]string, len(tags))
	for i, tag := range tags {
		codes[i] = tag.String()
	}
	return codes
}

func supportedTags() []language.Tag {
	tags := make([]language.Tag, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })
	return tags
}

// Title renders a marker phrase in title case using the table's language
// rules, for use in chapter labels ("chapter" -> "Chapter").
func (t Table) Title(marker string) string {
	return cases.Title(t.Tag).String(marker)
}
