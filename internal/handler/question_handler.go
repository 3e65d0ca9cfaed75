package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/physical-edu/physical-backend/internal/middleware"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/response"
	"github.com/physical-edu/physical-backend/internal/service"
	"github.com/physical-edu/physical-backend/internal/validator"
	"github.com/rs/zerolog"
)

// QuestionHandler handles question authoring, review and practice endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		log:             log.With().Str("component", "question_handler").Logger(),
	}
}

// ─── Authoring ─────────────────────────────────────────────────────────

// CreateQuestion godoc
// POST /api/questions
// Questions by admins and teachers are approved on creation; student
// questions wait for review.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), middleware.GetUser(c), &req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	message := "Question submitted for review"
	if question.Status {
		message = "Question created"
	}
	response.SuccessMessage(c, http.StatusCreated, message, question)
}

// EditQuestion godoc
// PUT /api/questions/:id
func (h *QuestionHandler) EditQuestion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.EditQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Edit(c.Request.Context(), id, &req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Question updated", question)
}

// ReplaceSolutionSteps godoc
// PUT /api/questions/:id/solution-steps
func (h *QuestionHandler) ReplaceSolutionSteps(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.SolutionStepsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	steps, err := h.questionService.ReplaceSolutionSteps(c.Request.Context(), id, req.SolutionSteps)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Solution steps updated", gin.H{"solution_steps": steps})
}

// ─── Review ────────────────────────────────────────────────────────────

// ApproveQuestion godoc
// PUT /api/questions/approve
// Approving an already approved question succeeds without changes.
func (h *QuestionHandler) ApproveQuestion(c *gin.Context) {
	var req model.ApproveQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Approve(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Question approved", question)
}

// DeleteQuestion godoc
// DELETE /api/questions/:id
// Hosted images of the question are removed on a best-effort basis.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	question, err := h.questionService.Delete(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Question deleted", question)
}

// ListUnapproved godoc
// GET /api/questions/unapproved
func (h *QuestionHandler) ListUnapproved(c *gin.Context) {
	questions, err := h.questionService.ListUnapproved(c.Request.Context())
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// ListApproved godoc
// GET /api/questions/approved
func (h *QuestionHandler) ListApproved(c *gin.Context) {
	questions, err := h.questionService.ListApproved(c.Request.Context())
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// ─── Practice ──────────────────────────────────────────────────────────

// ListBySubject godoc
// GET /api/questions/by-subject/:subjectId
// Only approved questions are listed.
func (h *QuestionHandler) ListBySubject(c *gin.Context) {
	subjectID, ok := parseID(c, "subjectId")
	if !ok {
		return
	}

	questions, err := h.questionService.ListBySubject(c.Request.Context(), subjectID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	response.Success(c, http.StatusOK, questions)
}

// ListByTag godoc
// GET /api/questions/by-tag/:tag
func (h *QuestionHandler) ListByTag(c *gin.Context) {
	questions, err := h.questionService.ListByTag(c.Request.Context(), c.Param("tag"))
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	response.Success(c, http.StatusOK, questions)
}

// GetQuestion godoc
// GET /api/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, question)
}

// GetSolution godoc
// GET /api/questions/:id/solution
func (h *QuestionHandler) GetSolution(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	solution, err := h.questionService.Solution(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, solution)
}

// GetHint godoc
// GET /api/questions/:id/hint/:hintIndex
func (h *QuestionHandler) GetHint(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("hintIndex"))
	if err != nil {
		response.FailMessage(c, http.StatusBadRequest, response.ErrHintOutOfRange, "Hint index must be an integer.")
		return
	}

	hint, err := h.questionService.Hint(c.Request.Context(), id, index)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"hint": hint, "index": index})
}

// NextQuestion godoc
// GET /api/questions/:id/next
// Returns the next approved question of the same subject, wrapping around.
func (h *QuestionHandler) NextQuestion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	question, err := h.questionService.Next(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, question)
}

// TestAnswer godoc
// POST /api/questions/:id/test
// Compares the answer case-insensitively against the textual correct answers.
func (h *QuestionHandler) TestAnswer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.TestAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	correct, err := h.questionService.TestAnswer(c.Request.Context(), id, req.Answer)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	message := "Incorrect answer"
	if correct {
		message = "Correct answer"
	}
	response.SuccessMessage(c, http.StatusOK, message, gin.H{"isCorrect": correct})
}
