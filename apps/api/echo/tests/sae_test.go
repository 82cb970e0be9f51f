package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tchaleu/saetrack/core/reminder"
	"github.com/tchaleu/saetrack/core/sae"
	"github.com/tchaleu/saetrack/core/user"
	testutil "github.com/tchaleu/saetrack/tests"
)

func TestSaeAPI(t *testing.T) {
	fix := setup(t)

	sup1 := testutil.CreateUser(t, fix.usrRepo, "Prof Martin", "martin", "martin@univ.fr", "", []string{user.RoleSupervisor}, true)
	sup2 := testutil.CreateUser(t, fix.usrRepo, "Prof Dubois", "dubois", "dubois@univ.fr", "", []string{user.RoleSupervisor}, true)
	stu1 := testutil.CreateUser(t, fix.usrRepo, "Alice Petit", "alice", "alice@univ.fr", "", []string{user.RoleStudent}, true)
	stu2 := testutil.CreateUser(t, fix.usrRepo, "Bob Moreau", "bob", "bob@univ.fr", "", []string{user.RoleStudent}, true)

	sup1Token := fix.token(t, sup1)
	sup2Token := fix.token(t, sup2)
	stuToken := fix.token(t, stu1)

	t.Run("auth is required", func(t *testing.T) {
		rec := fix.request(http.MethodGet, "/v1/saes", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("students cannot propose SAEs", func(t *testing.T) {
		rec := fix.request(http.MethodPost, "/v1/saes", stuToken, []byte(`{"title": "Dev Web"}`))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("title is required", func(t *testing.T) {
		rec := fix.request(http.MethodPost, "/v1/saes", sup1Token, []byte(`{"title": "  "}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	var created sae.Sae
	t.Run("supervisor proposes an SAE", func(t *testing.T) {
		rec := fix.request(http.MethodPost, "/v1/saes", sup1Token, []byte(`{"title": "Dev Web", "description": "Site vitrine"}`))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "Dev Web", created.Title)
		assert.Equal(t, sup1.ID, created.CreatedBy)
	})

	t.Run("supervisor attributes students", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"student_ids": [%d]}`, stu1.ID))
		rec := fix.request(http.MethodPost, fmt.Sprintf("/v1/saes/%d/attributions", created.ID), sup1Token, body)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("a second supervisor gets a conflict", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"student_ids": [%d]}`, stu2.ID))
		rec := fix.request(http.MethodPost, fmt.Sprintf("/v1/saes/%d/attributions", created.ID), sup2Token, body)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), sup1.Name))
	})

	t.Run("an attributed student cannot be re-attributed", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"student_ids": [%d]}`, stu1.ID))
		rec := fix.request(http.MethodPost, fmt.Sprintf("/v1/saes/%d/attributions", created.ID), sup1Token, body)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), stu1.Name))
	})

	t.Run("due date moves for the whole group", func(t *testing.T) {
		rec := fix.request(http.MethodPut, fmt.Sprintf("/v1/saes/%d/due-date", created.ID), sup1Token,
			[]byte(`{"due_date": "2026-10-02T00:00:00Z"}`))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("only the owner unassigns", func(t *testing.T) {
		rec := fix.request(http.MethodDelete, fmt.Sprintf("/v1/saes/%d/attributions/%d", created.ID, stu1.ID), sup2Token, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = fix.request(http.MethodDelete, fmt.Sprintf("/v1/saes/%d/attributions/%d", created.ID, stu1.ID), sup1Token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("unknown SAE is a 404", func(t *testing.T) {
		rec := fix.request(http.MethodGet, "/v1/saes/999", sup1Token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestReminderAPI(t *testing.T) {
	fix := setup(t)

	admin := testutil.CreateUser(t, fix.usrRepo, "Admin", "admin", "admin@univ.fr", "", user.AllRoles, true)
	sup := testutil.CreateUser(t, fix.usrRepo, "Prof Martin", "martin", "martin@univ.fr", "", []string{user.RoleSupervisor}, true)
	stu := testutil.CreateUser(t, fix.usrRepo, "Alice Petit", "alice", "alice@univ.fr", "", []string{user.RoleStudent}, true)

	adminToken := fix.token(t, admin)
	supToken := fix.token(t, sup)

	s := testutil.CreateSae(t, fix.saeRepo, "Dev Web", sup.ID)
	testutil.CreateAttribution(t, fix.saeRepo, s.ID, stu.ID, sup.ID, time.Now().AddDate(0, 0, 7))

	t.Run("admin only", func(t *testing.T) {
		rec := fix.request(http.MethodGet, "/v1/reminders/delays", supToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("default delays", func(t *testing.T) {
		rec := fix.request(http.MethodGet, "/v1/reminders/delays", adminToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Delays []int `json:"delays"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, reminder.DefaultDelays, resp.Delays)
	})

	t.Run("replace delays", func(t *testing.T) {
		rec := fix.request(http.MethodPut, "/v1/reminders/delays", adminToken, []byte(`{"delays": [14, 5, 14]}`))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "[14,5]"))
	})

	t.Run("out of range delays rejected", func(t *testing.T) {
		rec := fix.request(http.MethodPut, "/v1/reminders/delays", adminToken, []byte(`{"delays": [3, 45]}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("manual send", func(t *testing.T) {
		rec := fix.request(http.MethodPost, "/v1/reminders/send-now", adminToken, []byte(`{"days": 7}`))
		assert.Equal(t, http.StatusOK, rec.Code)

		var stats reminder.Stats
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, reminder.Stats{Total: 1, Sent: 1}, stats)
		assert.Equal(t, 1, len(fix.mailSvc.Sent))
	})
}
