package commentary

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CannedComments is the on-disk format of the file provider:
//
//	default:
//	  strengths: ["Bon rythme", "Formateur disponible"]
//	  remarks: ["Plus d'exercices pratiques"]
//	courses:
//	  Excel avancé:
//	    strengths: ["Les tableaux croisés dynamiques"]
type CannedComments struct {
	Default CannedSet            `yaml:"default"`
	Courses map[string]CannedSet `yaml:"courses"`
}

// CannedSet holds the comments of one course.
type CannedSet struct {
	Strengths []string `yaml:"strengths"`
	Remarks   []string `yaml:"remarks"`
}

// FileProvider answers prompts from a YAML file of canned comments, for
// offline runs. The answer is a numbered list so the Service picks one.
type FileProvider struct {
	comments CannedComments
	courses  map[string]CannedSet // keyed by lowercased course
	keys     []string             // course keys, longest first
}

// LoadFileProvider reads a canned comments file.
func LoadFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read comments file: %w", err)
	}
	var c CannedComments
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse comments file: %w", err)
	}
	return NewFileProvider(c), nil
}

// NewFileProvider wraps in-memory canned comments.
func NewFileProvider(c CannedComments) *FileProvider {
	fp := &FileProvider{comments: c, courses: make(map[string]CannedSet, len(c.Courses))}
	for name, set := range c.Courses {
		fp.courses[courseKey(name)] = set
	}
	for key := range fp.courses {
		fp.keys = append(fp.keys, key)
	}
	sort.Slice(fp.keys, func(i, j int) bool {
		if len(fp.keys[i]) != len(fp.keys[j]) {
			return len(fp.keys[i]) > len(fp.keys[j])
		}
		return fp.keys[i] < fp.keys[j]
	})
	return fp
}

// Comment returns the canned comments for course as a numbered list, so the
// Service picks one. Unknown courses use the default set.
func (f *FileProvider) Comment(ctx context.Context, kind Kind, course string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	set, ok := f.courses[courseKey(course)]
	if !ok {
		set = f.comments.Default
	}
	return numbered(set.list(kind)), nil
}

// Complete serves callers holding only a rendered prompt: the course is the
// longest known course named in it, the kind is guessed from its wording.
func (f *FileProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lower := strings.ToLower(prompt)

	set := f.comments.Default
	for _, key := range f.keys {
		if strings.Contains(lower, key) {
			set = f.courses[key]
			break
		}
	}
	kind := KindStrengths
	if strings.Contains(lower, "remarque") || strings.Contains(lower, "remark") {
		kind = KindRemarks
	}
	return numbered(set.list(kind)), nil
}

func (s CannedSet) list(kind Kind) []string {
	if kind == KindRemarks {
		return s.Remarks
	}
	return s.Strengths
}

func numbered(list []string) string {
	var sb strings.Builder
	for i, c := range list {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c)
	}
	return sb.String()
}

func courseKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
