package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/go-questions/internal/models"
	"gorm.io/gorm"
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

// joined selects questions with the asker and the addressed expert joined in.
func (s *QuestionService) joined(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table("questions").
		Joins("JOIN users AS askers ON askers.id = questions.asked_by_id").
		Joins("JOIN users AS experts ON experts.id = questions.expert_id")
}

// Ask stores a new unanswered question. expertID is taken as submitted.
func (s *QuestionService) Ask(ctx context.Context, askerID, expertID uint, text string) (*models.Question, error) {
	q := models.Question{QuestionText: text, AskedByID: askerID, ExpertID: expertID}
	if err := s.db.WithContext(ctx).Create(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create question: %w", err)
	}
	return &q, nil
}

// Answered lists every answered question for the public home page.
func (s *QuestionService) Answered(ctx context.Context) ([]models.AnsweredQuestion, error) {
	var rows []models.AnsweredQuestion
	err := s.joined(ctx).
		Select("questions.id AS question_id, questions.question_text, askers.name AS asker_name, experts.name AS expert_name").
		Where("questions.answer_text IS NOT NULL").
		Order("questions.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list answered questions: %w", err)
	}
	return rows, nil
}

// Detail returns one answered question. Unknown and unanswered ids are ErrNotFound.
func (s *QuestionService) Detail(ctx context.Context, id uint) (*models.QuestionDetail, error) {
	var rows []models.QuestionDetail
	err := s.joined(ctx).
		Select("questions.id, questions.question_text, questions.answer_text, askers.name AS asker_name, experts.name AS expert_name").
		Where("questions.id = ? AND questions.answer_text IS NOT NULL", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load question %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// Get loads the raw question row.
func (s *QuestionService) Get(ctx context.Context, id uint) (*models.Question, error) {
	var q models.Question
	if err := s.db.WithContext(ctx).First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load question %d: %w", id, err)
	}
	return &q, nil
}

// Answer records the answer text. It does not look at who the question was addressed to.
func (s *QuestionService) Answer(ctx context.Context, id uint, text string) error {
	res := s.db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id).Update("answer_text", text)
	if res.Error != nil {
		return fmt.Errorf("answer question %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UnansweredFor lists the open questions addressed to one expert.
func (s *QuestionService) UnansweredFor(ctx context.Context, expertID uint) ([]models.UnansweredQuestion, error) {
	var rows []models.UnansweredQuestion
	err := s.db.WithContext(ctx).Table("questions").
		Select("questions.id, questions.question_text, users.name AS asker_name").
		Joins("JOIN users ON users.id = questions.asked_by_id").
		Where("questions.answer_text IS NULL AND questions.expert_id = ?", expertID).
		Order("questions.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list unanswered questions for %d: %w", expertID, err)
	}
	return rows, nil
}
