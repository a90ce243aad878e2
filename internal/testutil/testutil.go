package testutil

import (
	"strings"
	"testing"

	"github.com/diewo77/go-questions/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var nameReplacer = strings.NewReplacer("/", "_", " ", "_")

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// The database is named after the test so parallel packages never share state.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + nameReplacer.Replace(t.Name()) + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Question{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// CreateUser inserts a user with a bcrypt-hashed password and the given flags.
func CreateUser(t *testing.T, db *gorm.DB, name, password string, expert, admin bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{Name: name, Password: string(hash), Expert: expert, Admin: admin}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %q: %v", name, err)
	}
	return u
}

// CreateQuestion inserts a question, answered when answer is non-nil.
func CreateQuestion(t *testing.T, db *gorm.DB, askerID, expertID uint, text string, answer *string) *models.Question {
	t.Helper()
	q := &models.Question{QuestionText: text, AskedByID: askerID, ExpertID: expertID, AnswerText: answer}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}

// Ptr returns a pointer to s.
func Ptr(s string) *string { return &s }
