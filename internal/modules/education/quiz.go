package education

import (
	"math"
	"strings"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
)

// PassingScore is the minimum percentage to pass a lesson quiz.
const PassingScore = 70

// Grade is the result of scoring one quiz attempt.
type Grade struct {
	Correct int  `json:"correct"`
	Total   int  `json:"total"`
	Score   int  `json:"score"`
	Passed  bool `json:"passed"`
}

// GradeQuiz scores answers (question id -> chosen option) against the key.
// A lesson without questions counts as a full score.
func GradeQuiz(questions []*types.QuizQuestion, answers map[string]string) Grade {
	g := Grade{}
	for _, q := range questions {
		if q == nil {
			continue
		}
		g.Total++
		if chosen, ok := answers[q.ID]; ok && sameAnswer(chosen, q.CorrectAnswer) {
			g.Correct++
		}
	}
	g.Score = ScorePct(g.Correct, g.Total)
	g.Passed = g.Score >= PassingScore
	return g
}

// ScorePct is round(correct/total*100); an empty quiz scores 100.
func ScorePct(correct, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

func sameAnswer(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
