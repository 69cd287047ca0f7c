// Package access decides who may invoke which operation and whether the
// caller may see correct answers.
package access

import (
	"quiz-web-service/internal/auth"
	"quiz-web-service/internal/domain"
)

type Capability int

const (
	Public Capability = iota
	Authenticated
	Admin
)

func (c Capability) String() string {
	switch c {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	}
	return "unknown"
}

type Operation string

const (
	OpRegister        Operation = "auth:register"
	OpLogin           Operation = "auth:login"
	OpMe              Operation = "auth:me"
	OpListQuizzes     Operation = "quiz:list"
	OpGetQuiz         Operation = "quiz:get"
	OpQuizzesByCat    Operation = "quiz:by-category"
	OpSubmitQuiz      Operation = "quiz:submit"
	OpMyResults       Operation = "quiz:my-results"
	OpLeaderboard     Operation = "leaderboard:view"
	OpAdminUsers      Operation = "admin:users"
	OpAdminQuizzes    Operation = "admin:quizzes"
	OpAdminGetQuiz    Operation = "admin:quiz-get"
	OpAdminCreateQuiz Operation = "admin:quiz-create"
	OpAdminUpdateQuiz Operation = "admin:quiz-update"
	OpAdminDeleteQuiz Operation = "admin:quiz-delete"
	OpAdminResults    Operation = "admin:results"
	OpAdminDeleteUser Operation = "admin:user-delete"
	OpAdminStats      Operation = "admin:stats"
)

// Operations maps every operation to the capability it requires.
var Operations = map[Operation]Capability{
	OpRegister:        Public,
	OpLogin:           Public,
	OpMe:              Authenticated,
	OpListQuizzes:     Public,
	OpGetQuiz:         Public,
	OpQuizzesByCat:    Public,
	OpSubmitQuiz:      Authenticated,
	OpMyResults:       Authenticated,
	OpLeaderboard:     Public,
	OpAdminUsers:      Admin,
	OpAdminQuizzes:    Admin,
	OpAdminGetQuiz:    Admin,
	OpAdminCreateQuiz: Admin,
	OpAdminUpdateQuiz: Admin,
	OpAdminDeleteQuiz: Admin,
	OpAdminResults:    Admin,
	OpAdminDeleteUser: Admin,
	OpAdminStats:      Admin,
}

// Authorize returns nil when p may invoke op. Unknown operations are denied.
func Authorize(op Operation, p *auth.Principal) error {
	required, ok := Operations[op]
	if !ok {
		return domain.ErrForbidden
	}
	switch required {
	case Public:
		return nil
	case Authenticated:
		if p == nil {
			return domain.ErrUnauthorized
		}
		return nil
	case Admin:
		if p == nil {
			return domain.ErrUnauthorized
		}
		if !p.IsAdmin() {
			return domain.ErrForbidden
		}
		return nil
	}
	return domain.ErrForbidden
}

// RevealsAnswers is true only for admin operations invoked by an admin.
func RevealsAnswers(op Operation, p *auth.Principal) bool {
	return Operations[op] == Admin && p != nil && p.IsAdmin()
}

// Redact returns a deep copy of q with every correct option index removed.
func Redact(q domain.Quiz) domain.Quiz {
	out := q
	out.Questions = make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		question.CorrectOptionIndex = nil
		out.Questions[i] = question
	}
	return out
}

// View returns q as the caller of op may see it.
func View(op Operation, p *auth.Principal, q domain.Quiz) domain.Quiz {
	if RevealsAnswers(op, p) {
		return q
	}
	return Redact(q)
}
