package domain

import "time"

// User is a registered account together with its cumulative quiz stats.
type User struct {
	ID                int64
	FirstName         string
	LastName          string
	Email             string
	PasswordHash      string
	Roles             RoleSet
	Score             int
	TotalQuizzesTaken int
	QuizzesPassed     int
	AvatarColor       string
	CreatedAt         time.Time
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Question is one multiple-choice question of a quiz.
// CorrectOptionIndex is zero-based; nil only at the boundary, before validation or after redaction.
type Question struct {
	ID                 int64
	QuizID             int64
	Position           int
	Text               string
	Options            []string
	CorrectOptionIndex *int
	Explanation        string
}

// Quiz owns an ordered list of questions.
type Quiz struct {
	ID           int64
	Title        string
	Description  string
	Category     string
	Difficulty   string
	TimeLimit    int // minutes
	PassingScore int // percentage
	CreatedAt    time.Time
	Questions    []Question
}

// QuizResult is the immutable record of one submission.
type QuizResult struct {
	ID             int64
	UserID         int64
	QuizID         int64
	Score          int
	TotalQuestions int
	CorrectAnswers int
	TimeTaken      int64 // seconds
	Passed         bool
	CompletedAt    time.Time
}

// Answer is a submitted selection for a question. A nil SelectedOption means unanswered.
type Answer struct {
	QuestionID     int64
	SelectedOption *int
}

// Submission is one attempt at a quiz.
type Submission struct {
	QuizID    int64
	UserID    int64
	Answers   []Answer
	TimeTaken int64
}

// AnswerKey is the scoring view of a quiz: question id -> correct option index.
type AnswerKey struct {
	QuizID       int64
	PassingScore int
	Correct      map[int64]int
}

// TotalQuestions is the denominator used for scoring.
func (k AnswerKey) TotalQuestions() int {
	return len(k.Correct)
}

// AnswerKeyOf derives the answer key from a fully loaded quiz.
func AnswerKeyOf(q Quiz) AnswerKey {
	key := AnswerKey{
		QuizID:       q.ID,
		PassingScore: q.PassingScore,
		Correct:      make(map[int64]int, len(q.Questions)),
	}
	for _, question := range q.Questions {
		idx := -1
		if question.CorrectOptionIndex != nil {
			idx = *question.CorrectOptionIndex
		}
		key.Correct[question.ID] = idx
	}
	return key
}

// StatsDelta is the change one submission applies to its user's cumulative stats.
type StatsDelta struct {
	Points int
	Passed bool
}

// Stats aggregates platform-wide counts for administrators.
type Stats struct {
	TotalUsers       int `json:"totalUsers"`
	TotalQuizzes     int `json:"totalQuizzes"`
	TotalQuestions   int `json:"totalQuestions"`
	AverageUserScore int `json:"averageUserScore"`
	RecentQuizzes    int `json:"recentQuizzes"`
	RecentUsers      int `json:"recentUsers"`
}

// Standing is one leaderboard row.
type Standing struct {
	Rank          int    `json:"rank"`
	UserID        int64  `json:"userId"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
	QuizzesTaken  int    `json:"quizzesTaken"`
	QuizzesPassed int    `json:"quizzesPassed"`
	PassRate      int    `json:"passRate"`
	AvatarColor   string `json:"avatarColor"`
}

// Leaderboard is an ordered snapshot of standings.
type Leaderboard struct {
	Entries   []Standing `json:"entries"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// IntPtr is a small helper for optional option indexes.
func IntPtr(v int) *int {
	return &v
}
