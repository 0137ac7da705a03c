package education

import (
	"sort"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
)

// Locked reports whether a lesson is out of reach at the given level.
func Locked(l types.Lesson, level int) bool {
	return l.LevelRequired > level
}

// Annotate marks each lesson with lock state and the user's progress, ordered
// by level requirement then position.
func Annotate(lessons []*types.Lesson, progress []*types.LessonProgress, level int) []types.LessonView {
	byLesson := make(map[string]*types.LessonProgress, len(progress))
	for _, p := range progress {
		if p != nil {
			byLesson[p.LessonID] = p
		}
	}
	out := make([]types.LessonView, 0, len(lessons))
	for _, l := range lessons {
		if l == nil {
			continue
		}
		v := types.LessonView{Lesson: *l, Locked: Locked(*l, level)}
		if p, ok := byLesson[l.ID]; ok {
			v.Completed = p.Completed
			v.Score = p.Score
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LevelRequired != out[j].LevelRequired {
			return out[i].LevelRequired < out[j].LevelRequired
		}
		return out[i].Position < out[j].Position
	})
	return out
}
