package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/sae"
	"github.com/tchaleu/saetrack/core/user"
)

// Logger funnels app logs into the test output.
type Logger struct {
	t *testing.T
}

func NewLogger(t *testing.T) *Logger { return &Logger{t: t} }

func (l *Logger) log(level, msg string, args []interface{}) {
	l.t.Log(append([]interface{}{level + ": " + msg}, args...)...)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

var _ core.Logger = (*Logger)(nil)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
) user.User {
	t.Helper()

	usr := user.User{
		Name:     name,
		Username: uname,
		Email:    email,
		Roles:    roles,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.UpdateOrCreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSae(t *testing.T, repo sae.Repository, title string, createdBy int) sae.Sae {
	t.Helper()

	s, err := repo.CreateSae(context.Background(), sae.Sae{
		Title:     title,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSae() failed: %v", err)
	}
	return s
}

func CreateAttribution(
	t *testing.T,
	repo sae.Repository,
	saeID, studentID, supervisorID int,
	due time.Time,
) sae.Attribution {
	t.Helper()

	att, err := repo.CreateAttribution(context.Background(), sae.Attribution{
		SaeID:        saeID,
		StudentID:    studentID,
		SupervisorID: supervisorID,
		DueDate:      core.Day(due),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAttribution() failed: %v", err)
	}
	return att
}
