// Package quality scores notes on five independent heuristics (completeness,
// accuracy, freshness, consistency, validity), each in [0,1], averaged into an
// overall score. Assessment is lazy: nothing is computed until asked for, and
// results are memoized in a capacity-bounded cache.
package quality

import (
	"math"
	"regexp"
	"strings"
	"time"

	"vaultkit/internal/validate"
	"vaultkit/pkg/models"
)

// Scores holds the five component scores and their mean.
type Scores struct {
	Completeness float64
	Accuracy     float64
	Freshness    float64
	Consistency  float64
	Validity     float64
	Overall      float64
}

// Input is everything a single assessment needs. Link counts come from the
// index; ErrorIssues is the number of error-severity findings recorded for
// the note.
type Input struct {
	Note          models.Note
	OutgoingLinks int
	BrokenLinks   int
	ErrorIssues   int
}

// Params tune the scoring.
type Params struct {
	Now               time.Time
	FreshnessHalfLife time.Duration
}

// knownStatuses are the workflow states vault notes conventionally declare.
var knownStatuses = map[string]bool{
	"": true, "draft": true, "active": true, "review": true,
	"done": true, "archived": true, "evergreen": true,
}

// Score computes the five heuristics for one note. Pure; the cache layer
// lives in Assessor.
func Score(in Input, p Params) Scores {
	s := Scores{
		Completeness: scoreCompleteness(&in.Note),
		Accuracy:     scoreAccuracy(&in, p.Now),
		Freshness:    scoreFreshness(&in.Note, p),
		Consistency:  scoreConsistency(&in.Note),
		Validity:     scoreValidity(&in),
	}
	s.Overall = (s.Completeness + s.Accuracy + s.Freshness + s.Consistency + s.Validity) / 5
	return s
}

// scoreCompleteness rewards notes that carry metadata and substance: parsed
// frontmatter, a title, tags, a created date, a non-trivial body, and at
// least one outgoing link.
func scoreCompleteness(note *models.Note) float64 {
	score := 0.0
	if note.HasFrontmatter && note.FrontmatterOK {
		score += 0.20
	}
	if note.FrontTitle != "" || note.H1 != "" {
		score += 0.15
	}
	if len(note.Tags) > 0 {
		score += 0.15
	}
	if note.Created != "" {
		score += 0.10
	}
	// Body substance saturates at 200 words.
	score += 0.25 * math.Min(float64(note.WordCount)/200, 1)
	if note.LinkCount > 0 {
		score += 0.15
	}
	return clamp(score)
}

// scoreAccuracy measures internal agreement: declared title matches the
// first heading, tags are well formed, dates are not in the future, and
// outgoing links resolve.
func scoreAccuracy(in *Input, now time.Time) float64 {
	note := &in.Note
	score := 1.0

	if note.FrontTitle != "" && note.H1 != "" &&
		!strings.EqualFold(strings.TrimSpace(note.FrontTitle), strings.TrimSpace(note.H1)) {
		score -= 0.25
	}

	if len(note.Tags) > 0 {
		bad := 0
		for _, tag := range note.Tags {
			if strings.HasPrefix(tag, "#") || strings.TrimSpace(tag) == "" {
				bad++
			}
		}
		score -= 0.25 * float64(bad) / float64(len(note.Tags))
	}

	for _, value := range []string{note.Created, note.Updated} {
		if t, ok := validate.ParseNoteDate(value); ok && t.After(now.Add(24*time.Hour)) {
			score -= 0.25
			break
		}
	}

	if in.OutgoingLinks > 0 {
		score -= 0.25 * float64(in.BrokenLinks) / float64(in.OutgoingLinks)
	}

	return clamp(score)
}

// scoreFreshness decays exponentially with age: a note half-life old scores
// 0.5, one twice that scores 0.25.
func scoreFreshness(note *models.Note, p Params) float64 {
	halfLife := p.FreshnessHalfLife
	if halfLife <= 0 {
		halfLife = 90 * 24 * time.Hour
	}
	age := p.Now.Sub(note.ModTime)
	if age <= 0 {
		return 1
	}
	return clamp(math.Pow(0.5, age.Hours()/halfLife.Hours()))
}

// scoreConsistency checks that the note agrees with vault conventions: file
// name matches the title slug, status is a known value, created does not
// postdate updated, and the heading hierarchy never skips a level.
func scoreConsistency(note *models.Note) float64 {
	score := 0.0

	base := note.Path
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".md")
	title := note.FrontTitle
	if title == "" {
		title = note.H1
	}
	if title == "" || slugsAgree(base, title) {
		score += 0.30
	}

	if knownStatuses[strings.ToLower(note.Status)] {
		score += 0.25
	}

	created, cok := validate.ParseNoteDate(note.Created)
	updated, uok := validate.ParseNoteDate(note.Updated)
	if !cok || !uok || !created.After(updated) {
		score += 0.25
	}

	if note.HeadingJumps == 0 {
		score += 0.20
	}

	return clamp(score)
}

// scoreValidity reflects mechanical soundness: frontmatter parses, declared
// dates parse, and no error-severity issue is on record.
func scoreValidity(in *Input) float64 {
	note := &in.Note
	score := 0.0

	if !note.HasFrontmatter || note.FrontmatterOK {
		score += 0.40
	}

	datesOK := true
	for _, value := range []string{note.Created, note.Updated} {
		if value == "" {
			continue
		}
		if _, ok := validate.ParseNoteDate(value); !ok {
			datesOK = false
		}
	}
	if datesOK {
		score += 0.30
	}

	if in.ErrorIssues == 0 {
		score += 0.30
	}

	return clamp(score)
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugsAgree(filename, title string) bool {
	return slugOf(filename) == slugOf(title)
}

func slugOf(s string) string {
	return strings.Trim(slugStripRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
