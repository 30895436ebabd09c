package parser

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/pkg/textx"
)

const (
	// sectionWindow caps the candidate chunk taken after a section header,
	// measured in runes.
	sectionWindow = 2500
	maxBullets    = 12
	minBulletLen  = 5
)

var sectionHeaders = map[string][]string{
	"skills":     {"skills", "technical skills"},
	"education":  {"education", "academic background"},
	"experience": {"experience", "work experience", "professional experience"},
}

// stopKeywords mark likely starts of the next section inside a chunk.
var stopKeywords = []string{"education", "experience", "projects", "skills", "certifications", "summary"}

var bulletSplit = regexp.MustCompile(`(?:\n|•|-)+`)

// extractSection locates the first occurrence of any header variant and takes
// a bounded window of the following text. The window is cut at the second
// stop-keyword occurrence: the first is usually the matched header itself or a
// false positive near the top, the second is treated as the next section's
// start. The heuristic is intentionally preserved as-is, including its odd
// behavior when stop keywords appear inside bullet content.
func extractSection(text string, variants []string) string {
	// Header matching is case-insensitive but the chunk keeps the original
	// case. Lowercasing can change a rune's encoded width, so byte offsets
	// found in the lowered string are converted to rune offsets before any
	// slice of the original text.
	lower := strings.ToLower(text)

	startByte := -1
	for _, h := range variants {
		if idx := strings.Index(lower, strings.ToLower(h)); idx != -1 {
			startByte = idx
			break
		}
	}
	if startByte == -1 {
		return ""
	}
	start := utf8.RuneCountInString(lower[:startByte])

	runes := []rune(text)
	end := start + sectionWindow
	if end > len(runes) {
		end = len(runes)
	}
	chunk := string(runes[start:end])

	chunkLower := strings.ToLower(chunk)
	var stops []int
	for _, k := range stopKeywords {
		if i := strings.Index(chunkLower, k); i > 0 {
			stops = append(stops, utf8.RuneCountInString(chunkLower[:i]))
		}
	}
	sort.Ints(stops)
	if len(stops) >= 2 {
		chunkRunes := []rune(chunk)
		chunk = string(chunkRunes[:stops[1]])
	}

	return textx.Normalize(chunk)
}

// extractBullets splits a section chunk on bullet delimiters and keeps
// normalized lines longer than minBulletLen characters, capped at maxBullets.
func extractBullets(section string) []string {
	bullets := make([]string, 0)
	if section == "" {
		return bullets
	}
	for _, part := range bulletSplit.Split(section, -1) {
		p := textx.Normalize(part)
		if p == "" || utf8.RuneCountInString(p) <= minBulletLen {
			continue
		}
		bullets = append(bullets, p)
		if len(bullets) == maxBullets {
			break
		}
	}
	return bullets
}

// Parse splits resume text into labeled sections and derives the structured
// representation. It never fails: any input, including the empty string,
// yields a (possibly empty) result.
func Parse(text string) domain.ParsedResumeSections {
	skillsChunk := extractSection(text, sectionHeaders["skills"])
	eduChunk := extractSection(text, sectionHeaders["education"])
	expChunk := extractSection(text, sectionHeaders["experience"])

	// No skills section located: fall back to scanning the whole document.
	skillsSource := skillsChunk
	if skillsSource == "" {
		skillsSource = text
	}

	return domain.ParsedResumeSections{
		Skills:     ExtractSkills(skillsSource, DefaultResumeSkills),
		Education:  extractBullets(eduChunk),
		Experience: extractBullets(expChunk),
		SectionsFound: domain.SectionsFound{
			Skills:     skillsChunk != "",
			Education:  eduChunk != "",
			Experience: expChunk != "",
		},
	}
}
