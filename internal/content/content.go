// Package content holds the built-in lesson, quiz and challenge catalog. It seeds
// the catalog tables and is served whenever those tables are empty or unreachable.
package content

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Catalog struct {
	Lessons       []*types.Lesson       `yaml:"lessons"`
	QuizQuestions []*types.QuizQuestion `yaml:"quiz_questions"`
	Challenges    []*types.Challenge    `yaml:"challenges"`
}

var (
	loadOnce sync.Once
	builtin  *Catalog
	loadErr  error
)

// Parse decodes and validates a catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Builtin returns the embedded catalog. It panics if the embedded file is malformed.
func Builtin() *Catalog {
	loadOnce.Do(func() {
		builtin, loadErr = Parse(catalogYAML)
	})
	if loadErr != nil {
		panic(loadErr)
	}
	return builtin
}

func (c *Catalog) validate() error {
	lessonIDs := make(map[string]struct{}, len(c.Lessons))
	for _, l := range c.Lessons {
		if l.ID == "" {
			return fmt.Errorf("lesson %q: missing id", l.Title)
		}
		if _, dup := lessonIDs[l.ID]; dup {
			return fmt.Errorf("lesson %s: duplicate id", l.ID)
		}
		if l.LevelRequired < 1 {
			return fmt.Errorf("lesson %s: level_required must be >= 1", l.ID)
		}
		lessonIDs[l.ID] = struct{}{}
	}
	for _, q := range c.QuizQuestions {
		if _, ok := lessonIDs[q.LessonID]; !ok {
			return fmt.Errorf("question %s: unknown lesson %s", q.ID, q.LessonID)
		}
		if !containsOption(q.Options, q.CorrectAnswer) {
			return fmt.Errorf("question %s: correct answer is not an option", q.ID)
		}
	}
	for _, ch := range c.Challenges {
		if !ch.Type.Valid() {
			return fmt.Errorf("challenge %s: invalid type %q", ch.ID, ch.Type)
		}
		if ch.RequirementValue <= 0 {
			return fmt.Errorf("challenge %s: requirement_value must be > 0", ch.ID)
		}
	}
	return nil
}

func containsOption(options []string, answer string) bool {
	for _, o := range options {
		if o == answer {
			return true
		}
	}
	return false
}

func (c *Catalog) Lesson(id string) (*types.Lesson, bool) {
	for _, l := range c.Lessons {
		if l.ID == id {
			cp := *l
			return &cp, true
		}
	}
	return nil, false
}

// Quiz returns the questions for a lesson in display order.
func (c *Catalog) Quiz(lessonID string) []*types.QuizQuestion {
	var out []*types.QuizQuestion
	for _, q := range c.QuizQuestions {
		if q.LessonID == lessonID {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (c *Catalog) ChallengesOfType(t types.ChallengeType) []*types.Challenge {
	var out []*types.Challenge
	for _, ch := range c.Challenges {
		if ch.Type == t {
			cp := *ch
			out = append(out, &cp)
		}
	}
	return out
}

func (c *Catalog) Challenge(id string) (*types.Challenge, bool) {
	for _, ch := range c.Challenges {
		if ch.ID == id {
			cp := *ch
			return &cp, true
		}
	}
	return nil, false
}

// AllLessons returns copies of every lesson.
func (c *Catalog) AllLessons() []*types.Lesson {
	out := make([]*types.Lesson, 0, len(c.Lessons))
	for _, l := range c.Lessons {
		cp := *l
		out = append(out, &cp)
	}
	return out
}
