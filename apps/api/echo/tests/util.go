package tests

import (
	"bytes"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/tchaleu/saetrack/apps/api/echo"
	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/reminder"
	"github.com/tchaleu/saetrack/core/sae"
	"github.com/tchaleu/saetrack/core/user"
	emailsvc "github.com/tchaleu/saetrack/services/email"
	dummydb "github.com/tchaleu/saetrack/storage/database/dummy"
	testutil "github.com/tchaleu/saetrack/tests"
)

type fixture struct {
	app     Server
	conf    *core.Config
	saeRepo sae.Repository
	usrRepo user.Repository
	tracker *reminder.Tracker
	mailSvc *emailsvc.ServiceMock
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conf := &core.Config{
		TestMode:         true,
		AppName:          "SAETrack",
		SecretKey:        []byte("test-secret"),
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "SAETrack", Address: "noreply@localhost"},
		Server: core.ServerConfig{
			JWTExpirationDelta: time.Hour,
		},
		Reminder: core.ReminderConfig{SendPause: time.Millisecond},
	}

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	logger := testutil.NewLogger(t)
	saeRepo := dummydb.NewSaeRepository(db)
	usrRepo := dummydb.NewUserRepository(db)
	tracker := reminder.NewTracker(dummydb.NewReminderRepository(db), logger)
	mailSvc := emailsvc.NewServiceMock(conf)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	app := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		SaeSvc:     sae.NewService(saeRepo, usrRepo, logger),
		Scheduler:  reminder.NewScheduler(saeRepo, tracker, mailSvc, logger, conf),
		Tracker:    tracker,
		UserRepo:   usrRepo,
		Validate:   validate,
		Translator: translator,
	})

	return &fixture{
		app:     app,
		conf:    conf,
		saeRepo: saeRepo,
		usrRepo: usrRepo,
		tracker: tracker,
		mailSvc: mailSvc,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (fix *fixture) token(t *testing.T, usr user.User) string {
	t.Helper()

	token, err := GenerateToken(GetUserClaims(usr, fix.conf), fix.conf)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	return token
}

func (fix *fixture) request(method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	fix.app.ServeHTTP(rec, req)
	return rec
}
