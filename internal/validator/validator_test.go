package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

func bindBody(body string) map[string]string {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req model.CandidateLoginRequest
	return Bind(c, &req)
}

func TestBind_CandidateLogin(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		badFields []string
	}{
		{name: "valid", body: `{"name":"Lina","id_number":"9981234567","phone_number":"0791234567"}`},
		{name: "valid with language", body: `{"name":"Lina","id_number":"9981234567","phone_number":"0771234567","language":"en"}`},
		{name: "short id", body: `{"name":"Lina","id_number":"99812","phone_number":"0791234567"}`, badFields: []string{"id_number"}},
		{name: "letters in id", body: `{"name":"Lina","id_number":"99812345ab","phone_number":"0791234567"}`, badFields: []string{"id_number"}},
		{name: "phone prefix", body: `{"name":"Lina","id_number":"9981234567","phone_number":"0761234567"}`, badFields: []string{"phone_number"}},
		{name: "phone length", body: `{"name":"Lina","id_number":"9981234567","phone_number":"079123456"}`, badFields: []string{"phone_number"}},
		{name: "unknown language", body: `{"name":"Lina","id_number":"9981234567","phone_number":"0791234567","language":"fr"}`, badFields: []string{"language"}},
		{name: "everything missing", body: `{}`, badFields: []string{"name", "id_number", "phone_number"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := bindBody(tt.body)
			if len(tt.badFields) == 0 {
				assert.Nil(t, fields)
				return
			}
			assert.Len(t, fields, len(tt.badFields))
			for _, f := range tt.badFields {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestBind_PhoneMessageIsTranslated(t *testing.T) {
	fields := bindBody(`{"name":"Lina","id_number":"9981234567","phone_number":"12345"}`)
	assert.Equal(t, "phone_number must be a valid mobile number starting with 077, 078 or 079", fields["phone_number"])
}

func TestBind_MalformedJSON(t *testing.T) {
	fields := bindBody(`{"name":`)
	assert.Contains(t, fields, "detail")
}

func TestStruct(t *testing.T) {
	assert.Nil(t, Struct(&model.DeleteResultRequest{ConfirmEmail: "admin@school.edu"}))
	assert.Contains(t, Struct(&model.DeleteResultRequest{ConfirmEmail: "nope"}), "confirm_email")
}
