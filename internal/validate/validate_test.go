package validate

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type shareBody struct {
	ReceiverID int64  `json:"receiver_id" binding:"required,gt=0"`
	Note       string `json:"note" binding:"max=5"`
}

func bind(t *testing.T, body string) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Register()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req shareBody
	return c.ShouldBindJSON(&req)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing field", `{}`, "receiver_id is required"},
		{"two fields", `{"receiver_id":0,"note":"too long"}`, "note must be at most 5 characters; receiver_id is required"},
		{"wrong type", `{"receiver_id":"seven"}`, "receiver_id must be a number"},
		{"bad json", `{"receiver_id" 1}`, "request body is not valid JSON"},
		{"truncated json", `{"receiver_id":`, "request body is not valid JSON"},
		{"empty body", ``, "request body is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bind(t, tt.body)
			if err == nil {
				t.Fatal("expected a binding error")
			}
			if got := Describe(err); got != tt.want {
				t.Errorf("Describe = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMap(t *testing.T) {
	m := Map(bind(t, `{"note":"way too long"}`))
	if m["receiver_id"] != "is required" || m["note"] != "must be at most 5 characters" {
		t.Errorf("Map = %v", m)
	}
	if Map(errors.New("plain")) != nil {
		t.Error("non-validation error should map to nil")
	}
}

func TestMissing(t *testing.T) {
	tests := map[string]bool{
		`{}`:                                  true,
		`{"receiver_id":0,"note":"too long"}`: true,
		`{"receiver_id":3,"note":"too long"}`: false,
		`{"receiver_id":"seven"}`:             false,
	}
	for body, want := range tests {
		if got := Missing(bind(t, body)); got != want {
			t.Errorf("Missing(%s) = %v, want %v", body, got, want)
		}
	}
	if Missing(nil) {
		t.Error("Missing(nil) = true")
	}
}
