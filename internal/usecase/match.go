package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/internal/parser"
)

// Blended score weights. Fixed constants of the design, not configurable.
const (
	weightSemantic   = 0.60
	weightSkills     = 0.25
	weightExperience = 0.15
)

// TopK bounds for a match request.
const (
	MinTopK     = 1
	MaxTopK     = 100
	DefaultTopK = 10
)

// MatchService ranks processed resumes against a job description by blending
// semantic similarity with explainable skill-overlap heuristics. Results are
// ephemeral: computed fresh per request, never cached or persisted.
type MatchService struct {
	JobDescriptions domain.JobDescriptionRepository
	Resumes         domain.ResumeRepository
}

// NewMatchService constructs a MatchService.
func NewMatchService(jds domain.JobDescriptionRepository, resumes domain.ResumeRepository) MatchService {
	return MatchService{JobDescriptions: jds, Resumes: resumes}
}

// MatchResponse is the full response envelope for one match request.
type MatchResponse struct {
	JDID             string               `json:"jd_id"`
	TopK             int                  `json:"top_k"`
	JDSkillsDetected []string             `json:"jd_skills_detected"`
	Results          []domain.MatchResult `json:"results"`
}

// Match ranks up to topK processed resumes against the job description.
// Validation and precondition checks run before any resume retrieval.
func (s MatchService) Match(ctx domain.Context, jdID string, topK int) (MatchResponse, error) {
	if topK < MinTopK || topK > MaxTopK {
		return MatchResponse{}, fmt.Errorf("%w: top_k must be in [%d,%d]", domain.ErrInvalidArgument, MinTopK, MaxTopK)
	}

	jd, err := s.JobDescriptions.Get(ctx, jdID)
	if err != nil {
		return MatchResponse{}, err
	}
	// Job descriptions are embedded synchronously at creation; a missing
	// embedding is a data-integrity problem, not a pending background step.
	if len(jd.Embedding) == 0 {
		return MatchResponse{}, fmt.Errorf("%w: job description embedding is missing", domain.ErrPreconditionFailed)
	}

	start := time.Now()
	observability.MatchRequestsTotal.Inc()
	defer func() { observability.MatchDuration.Observe(time.Since(start).Seconds()) }()

	jdSkills := parser.ExtractJobSkills(jd.CleanText)

	rows, err := s.Resumes.TopByEmbedding(ctx, jd.Embedding, topK)
	if err != nil {
		return MatchResponse{}, err
	}

	results := make([]domain.MatchResult, 0, len(rows))
	for _, row := range rows {
		resumeSkills := resumeSkillSet(row.ParsedJSON, row.CleanText)
		overlap, matched, missing := skillOverlap(resumeSkills, jdSkills)
		expScore, hits := experienceAlignment(row.CleanText, jdSkills)
		final := weightSemantic*row.Similarity + weightSkills*overlap + weightExperience*expScore

		results = append(results, domain.MatchResult{
			ResumeID:            row.ID,
			FinalScore:          round4(final),
			SemanticSimilarity:  round4(row.Similarity),
			SkillsOverlap:       round4(overlap),
			ExperienceAlignment: round4(expScore),
			SkillsMatched:       matched,
			SkillsMissing:       missing,
			KeywordHits:         hits,
			Models: domain.Models{
				JobDescriptionEmbeddingModel: jd.EmbeddingModel,
				ResumeEmbeddingModel:         row.EmbeddingModel,
			},
		})
	}

	// Retrieval order is by semantic similarity alone; the blended score can
	// reorder it. Stable sort keeps ties deterministic.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})

	return MatchResponse{
		JDID:             jdID,
		TopK:             topK,
		JDSkillsDetected: jdSkills,
		Results:          results,
	}, nil
}

var skillListSplit = regexp.MustCompile(`[,\n;]+`)

// resumeSkillSet resolves a resume's skill set. The parser's skills field is
// preferred and may arrive as a list or a delimiter-separated string (a
// loosely-typed boundary normalized into one canonical set here); when empty,
// the skill extractor runs directly over the resume's clean text.
func resumeSkillSet(parsedJSON []byte, cleanText string) []string {
	var fromParser []string
	if len(parsedJSON) > 0 {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(parsedJSON, &doc); err == nil {
			raw, ok := doc["skills"]
			if !ok {
				raw, ok = doc["Skills"]
			}
			if ok {
				var asList []string
				var asString string
				switch {
				case json.Unmarshal(raw, &asList) == nil:
					fromParser = asList
				case json.Unmarshal(raw, &asString) == nil:
					fromParser = skillListSplit.Split(asString, -1)
				}
			}
		}
	}
	if skills := parser.CanonicalizeSkills(fromParser); len(skills) > 0 {
		return skills
	}
	return parser.ExtractJobSkills(cleanText)
}

// skillOverlap computes matched / |jd skills| together with the matched and
// missing lists, defined as 0 when the job description has no detected skills.
func skillOverlap(resumeSkills, jdSkills []string) (float64, []string, []string) {
	set := make(map[string]struct{}, len(resumeSkills))
	for _, s := range resumeSkills {
		set[s] = struct{}{}
	}
	matched := make([]string, 0, len(jdSkills))
	missing := make([]string, 0, len(jdSkills))
	for _, s := range jdSkills {
		if _, ok := set[s]; ok {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}
	if len(jdSkills) == 0 {
		return 0, matched, missing
	}
	return float64(len(matched)) / float64(len(jdSkills)), matched, missing
}

// experienceAlignment is the looser textual-presence signal: the fraction of
// job-description skill terms appearing as substrings anywhere in the
// resume's clean text, independent of the structured skill set.
func experienceAlignment(cleanText string, jdSkills []string) (float64, []string) {
	text := strings.ToLower(cleanText)
	hits := make([]string, 0, len(jdSkills))
	for _, s := range jdSkills {
		if s != "" && strings.Contains(text, s) {
			hits = append(hits, s)
		}
	}
	if len(jdSkills) == 0 {
		return 0, hits
	}
	return float64(len(hits)) / math.Max(1, float64(len(jdSkills))), hits
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
