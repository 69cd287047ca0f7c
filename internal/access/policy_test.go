package access

import (
	"errors"
	"testing"

	"quiz-web-service/internal/auth"
	"quiz-web-service/internal/domain"
)

func TestAuthorize(t *testing.T) {
	student := &auth.Principal{UserID: 1, Email: "s@x.com", Roles: domain.RoleSet{domain.RoleStudent}}
	admin := &auth.Principal{UserID: 2, Email: "a@x.com", Roles: domain.RoleSet{domain.RoleStudent, domain.RoleAdmin}}

	tests := []struct {
		name string
		op   Operation
		p    *auth.Principal
		want error
	}{
		{"anonymous public", OpListQuizzes, nil, nil},
		{"anonymous login", OpLogin, nil, nil},
		{"anonymous submit", OpSubmitQuiz, nil, domain.ErrUnauthorized},
		{"student submit", OpSubmitQuiz, student, nil},
		{"anonymous admin", OpAdminStats, nil, domain.ErrUnauthorized},
		{"student admin", OpAdminStats, student, domain.ErrForbidden},
		{"admin admin", OpAdminDeleteQuiz, admin, nil},
		{"unknown op", Operation("nope"), admin, domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.op, tt.p)
			if tt.want == nil && err != nil {
				t.Fatalf("expected allow, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEveryOperationHasCapability(t *testing.T) {
	for op, c := range Operations {
		if c.String() == "unknown" {
			t.Fatalf("operation %s has no capability", op)
		}
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    1,
		Title: "Go",
		Questions: []domain.Question{
			{ID: 10, Text: "q1", Options: []string{"a", "b"}, CorrectOptionIndex: domain.IntPtr(1)},
			{ID: 11, Text: "q2", Options: []string{"a", "b", "c"}, CorrectOptionIndex: domain.IntPtr(0)},
		},
	}
}

func TestRedactIsDeepAndIdempotent(t *testing.T) {
	q := sampleQuiz()
	once := Redact(q)
	twice := Redact(once)

	for i := range q.Questions {
		if once.Questions[i].CorrectOptionIndex != nil || twice.Questions[i].CorrectOptionIndex != nil {
			t.Fatalf("question %d still carries its answer", i)
		}
		if q.Questions[i].CorrectOptionIndex == nil {
			t.Fatalf("original quiz was modified")
		}
		if len(twice.Questions[i].Options) != len(q.Questions[i].Options) {
			t.Fatalf("options changed by redaction")
		}
	}
	once.Questions[0].Options[0] = "changed"
	if q.Questions[0].Options[0] != "a" {
		t.Fatalf("redacted copy shares options with original")
	}
}

func TestViewRevealsOnlyToAdminsOnAdminOps(t *testing.T) {
	student := &auth.Principal{UserID: 1, Roles: domain.RoleSet{domain.RoleStudent}}
	admin := &auth.Principal{UserID: 2, Roles: domain.RoleSet{domain.RoleAdmin}}
	q := sampleQuiz()

	if v := View(OpGetQuiz, admin, q); v.Questions[0].CorrectOptionIndex != nil {
		t.Fatalf("public read must be redacted even for admins")
	}
	if v := View(OpAdminGetQuiz, student, q); v.Questions[0].CorrectOptionIndex != nil {
		t.Fatalf("student must not see answers")
	}
	if v := View(OpAdminGetQuiz, admin, q); v.Questions[0].CorrectOptionIndex == nil {
		t.Fatalf("admin read must reveal answers")
	}
}
