package http

import (
	"time"

	"quiz-web-service/internal/access"
	"quiz-web-service/internal/auth"
	"quiz-web-service/internal/domain"
)

type questionView struct {
	ID                 int64    `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex *int     `json:"correctOptionIndex,omitempty"`
	Explanation        string   `json:"explanation,omitempty"`
}

type quizView struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	Difficulty     string         `json:"difficulty"`
	TimeLimit      int            `json:"timeLimit"`
	PassingScore   int            `json:"passingScore"`
	TotalQuestions int            `json:"totalQuestions"`
	CreatedAt      time.Time      `json:"createdAt"`
	Questions      []questionView `json:"questions"`
}

// newQuizView renders q as the caller of op may see it.
func newQuizView(op access.Operation, p *auth.Principal, q domain.Quiz) quizView {
	q = access.View(op, p, q)
	out := quizView{
		ID:             q.ID,
		Title:          q.Title,
		Description:    q.Description,
		Category:       q.Category,
		Difficulty:     q.Difficulty,
		TimeLimit:      q.TimeLimit,
		PassingScore:   q.PassingScore,
		TotalQuestions: len(q.Questions),
		CreatedAt:      q.CreatedAt,
		Questions:      make([]questionView, len(q.Questions)),
	}
	for i, question := range q.Questions {
		out.Questions[i] = questionView{
			ID:                 question.ID,
			Text:               question.Text,
			Options:            question.Options,
			CorrectOptionIndex: question.CorrectOptionIndex,
			Explanation:        question.Explanation,
		}
	}
	return out
}

func newQuizViews(op access.Operation, p *auth.Principal, quizzes []domain.Quiz) []quizView {
	out := make([]quizView, len(quizzes))
	for i, q := range quizzes {
		out[i] = newQuizView(op, p, q)
	}
	return out
}

type resultView struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	QuizID         int64     `json:"quizId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectAnswers int       `json:"correctAnswers"`
	TimeTaken      int64     `json:"timeTaken"`
	Passed         bool      `json:"passed"`
	CompletedAt    time.Time `json:"completedAt"`
}

func newResultView(r domain.QuizResult) resultView {
	return resultView{
		ID:             r.ID,
		UserID:         r.UserID,
		QuizID:         r.QuizID,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		CorrectAnswers: r.CorrectAnswers,
		TimeTaken:      r.TimeTaken,
		Passed:         r.Passed,
		CompletedAt:    r.CompletedAt,
	}
}

func newResultViews(results []domain.QuizResult) []resultView {
	out := make([]resultView, len(results))
	for i, r := range results {
		out[i] = newResultView(r)
	}
	return out
}

type userView struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Roles         []string  `json:"roles"`
	Score         int       `json:"score"`
	QuizzesTaken  int       `json:"quizzesTaken"`
	QuizzesPassed int       `json:"quizzesPassed"`
	AvatarColor   string    `json:"avatarColor"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newUserView(u domain.User) userView {
	return userView{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Roles:         u.Roles.Strings(),
		Score:         u.Score,
		QuizzesTaken:  u.TotalQuizzesTaken,
		QuizzesPassed: u.QuizzesPassed,
		AvatarColor:   u.AvatarColor,
		CreatedAt:     u.CreatedAt,
	}
}

// jwtResponse is the login payload the browser client stores.
type jwtResponse struct {
	Token     string   `json:"token"`
	Type      string   `json:"type"`
	ID        int64    `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
	Score     int      `json:"score"`
}
