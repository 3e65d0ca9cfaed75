package model

import (
	"time"

	"github.com/google/uuid"
)

// Question is a physics problem with its answers and worked solution.
// Status false means pending review, true means approved.
type Question struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Content        Content    `json:"content"`
	Hints          []string   `json:"hints"`
	Tags           []string   `json:"tags"`
	Solution       string     `json:"solution"`
	CorrectAnswers []Answer   `json:"correct_answers"`
	SolutionSteps  []Answer   `json:"solution_steps"`
	Status         bool       `json:"status"`
	Subject        string     `json:"subject"`
	SubjectID      uuid.UUID  `json:"subject_id"`
	TeacherID      *uuid.UUID `json:"teacher_id,omitempty"`
	StudentID      *uuid.UUID `json:"student_id,omitempty"`
	ApprovedBy     *uuid.UUID `json:"approved_by,omitempty"`
	MediaURL       string     `json:"media_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Content is the question body: text, an image, or both.
type Content struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// AnswerType is the variant tag of an Answer.
type AnswerType string

const (
	AnswerText         AnswerType = "text"
	AnswerImage        AnswerType = "image"
	AnswerTextAndImage AnswerType = "text+image"
)

// Valid reports whether t is a known variant.
func (t AnswerType) Valid() bool {
	switch t {
	case AnswerText, AnswerImage, AnswerTextAndImage:
		return true
	}
	return false
}

// HasText reports whether the variant carries text that can be graded.
func (t AnswerType) HasText() bool { return t == AnswerText || t == AnswerTextAndImage }

// HasImage reports whether the variant carries an image.
func (t AnswerType) HasImage() bool { return t == AnswerImage || t == AnswerTextAndImage }

// Answer is one correct answer or one solution step. Order is 1-based.
type Answer struct {
	Type  AnswerType `json:"type"`
	Text  string     `json:"text,omitempty"`
	Image string     `json:"image,omitempty"`
	Order int        `json:"order"`
}

// Images returns every image URL referenced by the question, content first,
// then answers, then solution steps.
func (q *Question) Images() []string {
	var urls []string
	if q.Content.Image != "" {
		urls = append(urls, q.Content.Image)
	}
	for _, a := range q.CorrectAnswers {
		if a.Image != "" {
			urls = append(urls, a.Image)
		}
	}
	for _, s := range q.SolutionSteps {
		if s.Image != "" {
			urls = append(urls, s.Image)
		}
	}
	return urls
}

// Renumber rewrites Order to the contiguous sequence 1..N in slice order.
func Renumber(items []Answer) []Answer {
	for i := range items {
		items[i].Order = i + 1
	}
	return items
}

// RemoveAt drops the item at index i and renumbers the rest.
// An out-of-range index returns items unchanged.
func RemoveAt(items []Answer, i int) []Answer {
	if i < 0 || i >= len(items) {
		return items
	}
	out := make([]Answer, 0, len(items)-1)
	out = append(out, items[:i]...)
	out = append(out, items[i+1:]...)
	return Renumber(out)
}

// ─── Requests ──────────────────────────────────────────────────────────

// CreateQuestionRequest is the payload for authoring a question.
type CreateQuestionRequest struct {
	Title          string   `json:"title" binding:"required,max=300"`
	Subject        string   `json:"subject" binding:"required,max=100"`
	SubjectID      string   `json:"subject_id" binding:"required,uuid"`
	Solution       string   `json:"solution" binding:"required"`
	Hints          []string `json:"hints" binding:"omitempty,max=3"`
	Tags           []string `json:"tags" binding:"omitempty,max=5"`
	Content        *Content `json:"content"`
	CorrectAnswers []Answer `json:"correct_answers"`
	SolutionSteps  []Answer `json:"solution_steps"`
	MediaURL       string   `json:"media_url" binding:"omitempty,url"`
}

// EditQuestionRequest is the payload for editing a question. Content and
// correct answers are always required; nil optional fields keep their value.
type EditQuestionRequest struct {
	Title          *string   `json:"title" binding:"omitempty,min=1,max=300"`
	Subject        *string   `json:"subject" binding:"omitempty,min=1,max=100"`
	SubjectID      *string   `json:"subject_id" binding:"omitempty,uuid"`
	Solution       *string   `json:"solution" binding:"omitempty,min=1"`
	Hints          *[]string `json:"hints" binding:"omitempty,max=3"`
	Tags           *[]string `json:"tags" binding:"omitempty,max=5"`
	Content        *Content  `json:"content"`
	CorrectAnswers []Answer  `json:"correct_answers"`
	SolutionSteps  *[]Answer `json:"solution_steps"`
}

// ApproveQuestionRequest is the payload for approving a pending question.
type ApproveQuestionRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	AdminID    string `json:"adminId" binding:"required"`
}

// TestAnswerRequest carries a submitted answer to check.
type TestAnswerRequest struct {
	Answer string `json:"answer"`
}

// SolutionStepsRequest replaces the solution steps of a question.
type SolutionStepsRequest struct {
	SolutionSteps []Answer `json:"solution_steps"`
}

// ImageType is the declared purpose of an uploaded image.
type ImageType string

const (
	ImageQuestion ImageType = "question"
	ImageSolution ImageType = "solution"
	ImageDetailed ImageType = "detailed"
)

// Valid reports whether t is a known image type.
func (t ImageType) Valid() bool {
	switch t {
	case ImageQuestion, ImageSolution, ImageDetailed:
		return true
	}
	return false
}
