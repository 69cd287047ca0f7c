package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"quiz-web-service/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// RegisterInput is the registration request body.
type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=50"`
	Password  string `json:"password" validate:"required,min=6,max=40"`
}

// LoginInput is the login request body.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// QuestionInput is one question of a create/update request.
type QuestionInput struct {
	Text               string   `json:"text" yaml:"text"`
	Options            []string `json:"options" yaml:"options"`
	CorrectOptionIndex *int     `json:"correctOptionIndex" yaml:"correctOptionIndex"`
	Explanation        string   `json:"explanation" yaml:"explanation" validate:"max=1000"`
}

// QuizInput is the admin create/update request body.
type QuizInput struct {
	Title        string          `json:"title" yaml:"title" validate:"required,max=100"`
	Description  string          `json:"description" yaml:"description" validate:"max=500"`
	Category     string          `json:"category" yaml:"category" validate:"max=50"`
	Difficulty   string          `json:"difficulty" yaml:"difficulty" validate:"max=20"`
	TimeLimit    int             `json:"timeLimit" yaml:"timeLimit" validate:"gte=0"`
	PassingScore int             `json:"passingScore" yaml:"passingScore" validate:"gte=0,lte=100"`
	Questions    []QuestionInput `json:"questions" yaml:"questions" validate:"dive"`
}

// SubmissionInput is the quiz submission request body.
type SubmissionInput struct {
	QuizID    int64         `json:"quizId" validate:"required"`
	Answers   []AnswerInput `json:"answers" validate:"dive"`
	TimeTaken int64         `json:"timeTaken" validate:"gte=0"`
}

type AnswerInput struct {
	QuestionID     int64 `json:"questionId" validate:"required"`
	SelectedOption *int  `json:"selectedOption"`
}

// Validate runs struct-tag validation and reports failures as a field map.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate input: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fieldMessage(fe)
	}
	return domain.NewFieldErrors(fields)
}

// fieldPath drops the root struct name: "QuizInput.questions[0].explanation" -> "questions[0].explanation".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "must be a well-formed email address"
	case "min":
		return fmt.Sprintf("size must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("size must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	}
	return "is invalid"
}

// checkQuiz enforces the quiz content rules that produce a single message.
func checkQuiz(in QuizInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.NewValidationError("Quiz title is required")
	}
	if len(in.Questions) == 0 {
		return domain.NewValidationError("Quiz must have at least one question")
	}
	for i, q := range in.Questions {
		n := i + 1
		if strings.TrimSpace(q.Text) == "" {
			return domain.NewValidationError("Question %d text is required", n)
		}
		if len(q.Options) < 2 {
			return domain.NewValidationError("Question %d must have at least 2 options", n)
		}
		if q.CorrectOptionIndex == nil || *q.CorrectOptionIndex < 0 || *q.CorrectOptionIndex >= len(q.Options) {
			return domain.NewValidationError("Question %d must have a valid correct option", n)
		}
	}
	return nil
}

// ValidateQuiz runs structural then content validation.
func ValidateQuiz(in QuizInput) error {
	if err := Validate(in); err != nil {
		return err
	}
	return checkQuiz(in)
}

func (in QuizInput) toDomain() domain.Quiz {
	q := domain.Quiz{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Category:     in.Category,
		Difficulty:   in.Difficulty,
		TimeLimit:    in.TimeLimit,
		PassingScore: in.PassingScore,
		Questions:    make([]domain.Question, len(in.Questions)),
	}
	for i, qi := range in.Questions {
		q.Questions[i] = domain.Question{
			Position:           i,
			Text:               qi.Text,
			Options:            append([]string(nil), qi.Options...),
			CorrectOptionIndex: domain.IntPtr(*qi.CorrectOptionIndex),
			Explanation:        qi.Explanation,
		}
	}
	return q
}

func (in SubmissionInput) toDomain(userID int64) domain.Submission {
	answers := make([]domain.Answer, len(in.Answers))
	for i, a := range in.Answers {
		answers[i] = domain.Answer{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption}
	}
	return domain.Submission{QuizID: in.QuizID, UserID: userID, Answers: answers, TimeTaken: in.TimeTaken}
}
