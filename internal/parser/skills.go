// Package parser implements the skill extractor and the resume section parser.
//
// Both are best-effort heuristics over unstructured text: keyword containment
// with no stemming or negation handling ("not familiar with Python" still
// matches "python"), and a sliding-window section splitter. They degrade to
// empty results rather than fail.
package parser

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// DefaultResumeSkills is the small resume-oriented vocabulary used by the
// section parser.
var DefaultResumeSkills = []string{
	"python", "sql", "tensorflow", "pytorch", "keras", "fastapi", "docker",
	"postgresql", "redis", "mlflow", "nlp", "spacy", "aws", "azure", "git",
}

// JobSkillVocabulary is the larger job-description-oriented vocabulary.
// Terms are lowercase; multi-word phrases match as literal substrings.
var JobSkillVocabulary = []string{
	// Programming
	"python", "java", "c++", "javascript", "typescript", "go",
	"bash", "shell", "linux",
	// Data science core
	"data science", "data analysis", "data analytics",
	"pandas", "numpy", "scipy",
	"matplotlib", "seaborn", "plotly",
	"jupyter", "notebook",
	// Machine learning
	"machine learning", "ml",
	"scikit-learn", "sklearn",
	"supervised learning", "unsupervised learning",
	"classification", "regression", "clustering",
	"feature engineering", "model evaluation",
	// Deep learning
	"deep learning", "neural networks",
	"tensorflow", "tensor flow",
	"keras",
	"pytorch", "torch",
	"cnn", "rnn", "lstm", "transformer",
	// NLP
	"nlp", "natural language processing",
	"tokenization", "lemmatization",
	"word embeddings", "embeddings",
	"sentence transformers", "sentence-transformers",
	"spacy", "nltk",
	"bert", "gpt", "llm",
	// Computer vision
	"computer vision",
	"opencv",
	"image processing",
	"object detection", "image classification",
	"yolo", "resnet",
	// Databases
	"sql", "postgres", "postgresql",
	"mysql", "sqlite",
	"nosql", "mongodb",
	"pgvector",
	// Big data
	"big data",
	"spark", "pyspark",
	"hadoop",
	"kafka",
	// Backend / APIs
	"fastapi", "flask", "django",
	"rest api", "restful api",
	"grpc",
	// MLOps / deployment
	"mlops",
	"docker", "docker compose",
	"kubernetes", "k8s",
	"ci/cd",
	"github actions", "gitlab ci",
	"mlflow",
	"model deployment",
	"monitoring",
	// Cloud
	"aws", "amazon web services",
	"s3", "ec2", "lambda",
	"gcp", "google cloud",
	"azure",
	// Software engineering
	"software engineering",
	"system design",
	"data structures",
	"algorithms",
	"object oriented programming",
	"oop",
	"version control",
	"git",
	// Research / math
	"statistics", "probability",
	"linear algebra",
	"optimization",
	"hypothesis testing",
}

var wordPatterns sync.Map // term -> *regexp.Regexp

// termMatches reports whether the lowercase term occurs in the lowercase text.
// Single tokens match on word boundaries so "go" does not match inside
// "going"; multi-word phrases match as literal substrings.
func termMatches(text, term string) bool {
	if strings.ContainsRune(term, ' ') {
		return strings.Contains(text, term)
	}
	if v, ok := wordPatterns.Load(term); ok {
		return v.(*regexp.Regexp).MatchString(text)
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	wordPatterns.Store(term, re)
	return re.MatchString(text)
}

// NormalizeSkill lowercases a skill term and collapses inner whitespace.
func NormalizeSkill(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ExtractSkills returns the vocabulary terms found in text, deduplicated and
// sorted alphabetically. This is the ordering identity used by the resume
// section parser.
func ExtractSkills(text string, vocab []string) []string {
	t := strings.ToLower(text)
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, term := range vocab {
		term = strings.ToLower(term)
		if !termMatches(t, term) {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// ExtractJobSkills detects JobSkillVocabulary terms in a job description,
// deduplicated in vocabulary order of first appearance. This is the ordering
// identity used by the match engine.
func ExtractJobSkills(text string) []string {
	t := strings.ToLower(text)
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, term := range JobSkillVocabulary {
		if !termMatches(t, term) {
			continue
		}
		ns := NormalizeSkill(term)
		if _, dup := seen[ns]; dup {
			continue
		}
		seen[ns] = struct{}{}
		out = append(out, ns)
	}
	return out
}

// CanonicalizeSkills normalizes a skill list and drops empties and duplicates,
// preserving first-appearance order.
func CanonicalizeSkills(items []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(items))
	for _, s := range items {
		ns := NormalizeSkill(s)
		if ns == "" {
			continue
		}
		if _, dup := seen[ns]; dup {
			continue
		}
		seen[ns] = struct{}{}
		out = append(out, ns)
	}
	return out
}
