package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostedOn(host string) HostCheck {
	return func(url string) bool { return strings.Contains(url, host) }
}

var hosted = hostedOn("cdn.example")

func TestRoleGate(t *testing.T) {
	cases := []struct {
		role                       Role
		admin, teacher, adminOrTea bool
	}{
		{RoleAdmin, true, false, true},
		{RoleTeacher, false, true, true},
		{RoleStudent, false, false, false},
		{Role("guest"), false, false, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.admin, tc.role.IsAdmin())
			assert.Equal(t, tc.teacher, tc.role.IsTeacher())
			assert.Equal(t, tc.adminOrTea, tc.role.IsAdminOrTeacher())
		})
	}
}

func TestCapabilities(t *testing.T) {
	assert.True(t, RoleAdmin.Can(CapabilityManageTeachers))
	assert.False(t, RoleTeacher.Can(CapabilityManageTeachers))
	assert.True(t, RoleTeacher.Can(CapabilityApprove))
	assert.True(t, RoleTeacher.Can(CapabilityDelete))
	assert.False(t, RoleStudent.Can(CapabilityApprove))
	assert.False(t, RoleStudent.Can(CapabilityDelete))
	assert.False(t, RoleStudent.Can(CapabilityReview))
	assert.True(t, RoleTeacher.Can(CapabilityManageSubjects))
	assert.False(t, RoleStudent.Can(CapabilityManageSubjects))
	assert.False(t, RoleAdmin.Can(Capability("unknown")))
}

func TestRenumberAndRemoveAt(t *testing.T) {
	items := []Answer{
		{Type: AnswerText, Text: "a", Order: 7},
		{Type: AnswerText, Text: "b", Order: 3},
		{Type: AnswerText, Text: "c", Order: 3},
		{Type: AnswerText, Text: "d"},
	}
	items = Renumber(items)
	for i, it := range items {
		assert.Equal(t, i+1, it.Order)
	}

	items = RemoveAt(items, 1)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"a", "c", "d"}, []string{items[0].Text, items[1].Text, items[2].Text})
	assert.Equal(t, []int{1, 2, 3}, []int{items[0].Order, items[1].Order, items[2].Order})

	assert.Len(t, RemoveAt(items, 9), 3)
	assert.Empty(t, RemoveAt([]Answer{{Type: AnswerText, Text: "x"}}, 0))
}

func TestContentValidate(t *testing.T) {
	assert.Error(t, (*Content)(nil).Validate(hosted))
	assert.Error(t, (&Content{Text: "   "}).Validate(hosted))
	assert.NoError(t, (&Content{Text: "F = ma"}).Validate(hosted))
	assert.NoError(t, (&Content{Image: "https://cdn.example/q.png"}).Validate(hosted))

	err := (&Content{Text: "x", Image: "https://elsewhere.example/q.png"}).Validate(hosted)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "content.image", ve.Field)
}

func TestValidateAnswersVariants(t *testing.T) {
	img := "https://cdn.example/a.png"
	cases := []struct {
		name    string
		answer  Answer
		mode    ValidationMode
		wantErr bool
	}{
		{"text ok", Answer{Type: AnswerText, Text: "42"}, ValidateCreate, false},
		{"text missing", Answer{Type: AnswerText}, ValidateCreate, true},
		{"image ok", Answer{Type: AnswerImage, Image: img}, ValidateCreate, false},
		{"image missing", Answer{Type: AnswerImage, Text: "x"}, ValidateCreate, true},
		{"image foreign host", Answer{Type: AnswerImage, Image: "https://x.example/a.png"}, ValidateCreate, true},
		{"text+image create text only", Answer{Type: AnswerTextAndImage, Text: "42"}, ValidateCreate, false},
		{"text+image create empty", Answer{Type: AnswerTextAndImage}, ValidateCreate, true},
		{"text+image edit text only", Answer{Type: AnswerTextAndImage, Text: "42"}, ValidateEdit, true},
		{"text+image edit both", Answer{Type: AnswerTextAndImage, Text: "42", Image: img}, ValidateEdit, false},
		{"unknown type", Answer{Type: "video", Text: "x"}, ValidateCreate, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAnswers([]Answer{tc.answer}, tc.mode, hosted, "correct_answers")
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCorrectAnswersRequiresOne(t *testing.T) {
	err := ValidateCorrectAnswers(nil, ValidateCreate, hosted)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "correct_answers", ve.Field)
}

func TestQuestionImages(t *testing.T) {
	q := Question{
		Content:        Content{Text: "t", Image: "c.png"},
		CorrectAnswers: []Answer{{Type: AnswerImage, Image: "a.png"}, {Type: AnswerText, Text: "1"}},
		SolutionSteps:  []Answer{{Type: AnswerTextAndImage, Text: "s", Image: "s.png"}},
	}
	assert.Equal(t, []string{"c.png", "a.png", "s.png"}, q.Images())
}

func TestUserJSONOmitsSecretsAndPendingRequest(t *testing.T) {
	u := User{ID: uuid.New(), Email: "a@b.c", PasswordHash: "hash", Role: RoleTeacher}
	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hash")
	assert.NotContains(t, string(data), "requested_role")

	rec := u.Record()
	data, err = json.Marshal(rec)
	require.NoError(t, err)

	var back UserRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "hash", back.ToUser().PasswordHash)
	assert.Equal(t, u.ID, back.ToUser().ID)
}
