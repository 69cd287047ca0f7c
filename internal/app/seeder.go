package app

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-web-service/internal/auth"
	"quiz-web-service/internal/domain"
)

//go:embed seed/sample_quizzes.yaml
var sampleData []byte

type seedFile struct {
	Users   []seedUser  `yaml:"users"`
	Quizzes []QuizInput `yaml:"quizzes"`
}

type seedUser struct {
	FirstName     string        `yaml:"firstName"`
	LastName      string        `yaml:"lastName"`
	Email         string        `yaml:"email"`
	Password      string        `yaml:"password"`
	AvatarColor   string        `yaml:"avatarColor"`
	Score         int           `yaml:"score"`
	QuizzesTaken  int           `yaml:"quizzesTaken"`
	QuizzesPassed int           `yaml:"quizzesPassed"`
	Roles         []domain.Role `yaml:"roles"`
}

// Seeder inserts demo accounts and sample quizzes. Running it twice is a no-op.
type Seeder struct {
	store Store
	data  []byte
}

func NewSeeder(store Store) *Seeder {
	return &Seeder{store: store, data: sampleData}
}

// Seed creates missing demo users, and the sample quizzes when the store has none.
func (s *Seeder) Seed(ctx context.Context) error {
	var file seedFile
	if err := yaml.Unmarshal(s.data, &file); err != nil {
		return fmt.Errorf("parse seed data: %w", err)
	}

	for _, su := range file.Users {
		exists, err := s.store.EmailExists(ctx, su.Email)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		hash, err := auth.HashPassword(su.Password)
		if err != nil {
			return err
		}
		u := domain.User{
			FirstName:         su.FirstName,
			LastName:          su.LastName,
			Email:             su.Email,
			PasswordHash:      hash,
			Roles:             domain.RoleSet(su.Roles),
			Score:             su.Score,
			TotalQuizzesTaken: su.QuizzesTaken,
			QuizzesPassed:     su.QuizzesPassed,
			AvatarColor:       su.AvatarColor,
			CreatedAt:         time.Now(),
		}
		if err := s.store.CreateUser(ctx, &u); err != nil {
			return fmt.Errorf("seed user %s: %w", su.Email, err)
		}
		log.Printf("seeded user %s", su.Email)
	}

	count, err := s.store.CountQuizzes(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, in := range file.Quizzes {
		if err := ValidateQuiz(in); err != nil {
			return fmt.Errorf("seed quiz %q: %w", in.Title, err)
		}
		q := in.toDomain()
		q.CreatedAt = time.Now()
		if err := s.store.CreateQuiz(ctx, &q); err != nil {
			return fmt.Errorf("seed quiz %q: %w", in.Title, err)
		}
	}
	log.Printf("seeded %d sample quizzes", len(file.Quizzes))
	return nil
}
