package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

// ParsedSection is one title/detail pair of a nested cell. Sections keep
// their order of appearance and live only for the duration of one query.
type ParsedSection struct {
	Title  string
	Detail string
}

const snippetLimit = 150

var (
	reHashHeading = regexp.MustCompile(`^\s{0,3}#{1,3}\s+(.+?)\s*$`)
	reBoldHeading = regexp.MustCompile(`^\s*\*\*(.+?)\*\*:?\s*$`)
)

// parseSections splits nested cell text into ordered title/detail sections.
// A cell counts as nested when it carries at least two headings, either
// markdown style ("### Viêm màng não") or bold-line style ("**Viêm màng não**").
// Flat text returns nil.
func parseSections(raw string) []ParsedSection {
	var sections []ParsedSection
	var current *ParsedSection
	var detail strings.Builder

	flush := func() {
		if current != nil {
			current.Detail = strings.TrimSpace(detail.String())
			sections = append(sections, *current)
			detail.Reset()
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		title := ""
		if m := reHashHeading.FindStringSubmatch(line); m != nil {
			title = m[1]
		} else if m := reBoldHeading.FindStringSubmatch(line); m != nil {
			title = m[1]
		}
		if title != "" {
			flush()
			current = &ParsedSection{Title: strings.TrimSpace(title)}
			continue
		}
		if current != nil {
			detail.WriteString(line)
			detail.WriteString("\n")
		}
	}
	flush()

	if len(sections) < 2 {
		return nil
	}
	return sections
}

// Refinement is the refiner's output: the answer text plus whether the
// content was narrowed to a query-specific subset.
type Refinement struct {
	Text     string
	Narrowed bool
}

// refineContent narrows the raw cell text to the part relevant to the query
// context. Nested cells are narrowed section-wise; flat cells fragment-wise.
// With an empty context the text passes through (nested cells become a short
// overview instead, since dumping every section is unhelpful on a phone
// screen).
func refineContent(raw string, qc QueryContext) Refinement {
	sections := parseSections(raw)

	if sections == nil {
		if qc.IsEmpty() {
			return Refinement{Text: stripMarkup(raw)}
		}
		return refineFlat(raw, qc)
	}

	if qc.IsEmpty() {
		return Refinement{Text: sectionOverview(sections)}
	}

	keywords := qc.Keywords()
	var picked []ParsedSection
	for _, sec := range sections {
		if sectionMatches(sec, keywords) {
			picked = append(picked, sec)
		}
	}
	if len(picked) == 0 {
		// No section names the asked context; fall back to sentence-level
		// extraction over the flattened text.
		return refineFlat(flattenSections(sections), qc)
	}

	var b strings.Builder
	for i, sec := range picked {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sec.Title)
		b.WriteString(": ")
		b.WriteString(collapseSpaces(stripMarkup(sec.Detail)))
	}
	return Refinement{Text: b.String(), Narrowed: true}
}

func sectionMatches(sec ParsedSection, keywords []string) bool {
	title := fold(sec.Title)
	detail := fold(sec.Detail)
	for _, kw := range keywords {
		if containsPhrase(title, kw) || containsPhrase(detail, kw) {
			return true
		}
	}
	return false
}

// sectionOverview enumerates the section titles and quotes the first few
// details, truncated, as a general answer.
func sectionOverview(sections []ParsedSection) string {
	var b strings.Builder
	b.WriteString("Tài liệu gồm các mục: ")
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%d) %s", i+1, sec.Title)
	}
	b.WriteString(".")
	for i, sec := range sections {
		if i >= 3 {
			break
		}
		detail := truncate(collapseSpaces(stripMarkup(sec.Detail)), snippetLimit)
		if detail == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(sec.Title)
		b.WriteString(": ")
		b.WriteString(detail)
	}
	return b.String()
}

var reFragmentSplit = regexp.MustCompile(`[.?!;:\n]+|,\s+|\s+/\s+`)

// refineFlat keeps only the sentence and clause fragments that contain a
// context keyword, deduplicated in order. When nothing matches, the whole
// text passes through rather than returning an empty answer.
func refineFlat(raw string, qc QueryContext) Refinement {
	keywords := qc.Keywords()
	var picked []string
	seen := make(map[string]bool)
	for _, frag := range reFragmentSplit.Split(raw, -1) {
		frag = collapseSpaces(stripMarkup(frag))
		if frag == "" {
			continue
		}
		folded := fold(frag)
		for _, kw := range keywords {
			if containsPhrase(folded, kw) {
				if !seen[folded] {
					seen[folded] = true
					picked = append(picked, frag)
				}
				break
			}
		}
	}
	if len(picked) == 0 {
		return Refinement{Text: stripMarkup(raw)}
	}
	return Refinement{Text: strings.Join(picked, "; "), Narrowed: true}
}

func flattenSections(sections []ParsedSection) string {
	var b strings.Builder
	for _, sec := range sections {
		b.WriteString(sec.Title)
		b.WriteString(". ")
		b.WriteString(sec.Detail)
		b.WriteString("\n")
	}
	return b.String()
}

var reMarkup = regexp.MustCompile(`(?m)^\s{0,3}#{1,3}\s+|\*\*|^\s*[-*•]\s+`)

// stripMarkup removes structural markers and normalizes whitespace while
// keeping line breaks between paragraphs meaningful.
func stripMarkup(s string) string {
	s = reMarkup.ReplaceAllString(s, "")
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		if line = collapseSpaces(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
