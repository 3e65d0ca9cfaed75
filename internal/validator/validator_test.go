package validator

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindUsesJSONFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"not-an-email"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req model.SigninRequest
	fields := Bind(c, &req)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestTranslateDomainError(t *testing.T) {
	err := fmt.Errorf("edit: %w", &model.ValidationError{Field: "content", Message: "missing"})
	assert.Equal(t, map[string]string{"content": "missing"}, TranslateErrors(err))
}

func TestTranslateOtherError(t *testing.T) {
	assert.Equal(t, map[string]string{"detail": "boom"}, TranslateErrors(errors.New("boom")))
}
