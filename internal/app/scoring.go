package app

import "quiz-web-service/internal/domain"

// PointsPerCorrectAnswer is added to a user's cumulative score for every correct answer.
const PointsPerCorrectAnswer = 10

// Outcome is the result of scoring one submission against an answer key.
type Outcome struct {
	Correct int
	Total   int
	Score   int
	Passed  bool
	Points  int
}

// Delta is the user-record change implied by o.
func (o Outcome) Delta() domain.StatsDelta {
	return domain.StatsDelta{Points: o.Points, Passed: o.Passed}
}

// Score compares answers with key. Unanswered questions count toward the
// total and never match; a question answered twice counts once, first answer wins.
func Score(key domain.AnswerKey, answers []domain.Answer) (Outcome, error) {
	total := key.TotalQuestions()
	if total == 0 {
		return Outcome{}, domain.ErrInvalidQuiz
	}

	seen := make(map[int64]struct{}, len(answers))
	correct := 0
	for _, a := range answers {
		want, ok := key.Correct[a.QuestionID]
		if !ok {
			return Outcome{}, domain.ErrQuestionNotFound
		}
		if _, dup := seen[a.QuestionID]; dup {
			continue
		}
		seen[a.QuestionID] = struct{}{}
		if a.SelectedOption != nil && *a.SelectedOption >= 0 && *a.SelectedOption == want {
			correct++
		}
	}

	score := roundDiv(correct*100, total)
	return Outcome{
		Correct: correct,
		Total:   total,
		Score:   score,
		Passed:  score >= key.PassingScore,
		Points:  correct * PointsPerCorrectAnswer,
	}, nil
}
