package model

import (
	"fmt"
	"strings"
)

// ValidationError reports a rejected field of a request. Field uses the JSON
// path of the offending value (e.g. "correct_answers[1].image").
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// HostCheck reports whether an image URL is hosted on the blob store.
type HostCheck func(url string) bool

// ValidationMode selects the rule set for answer and step variants.
type ValidationMode int

const (
	// ValidateCreate requires at least one of text/image for text+image.
	ValidateCreate ValidationMode = iota
	// ValidateEdit requires both text and image for text+image.
	ValidateEdit
)

// Validate checks that the content has text or an image, and that an image is
// hosted on the blob store.
func (c *Content) Validate(hosted HostCheck) error {
	if c == nil || (strings.TrimSpace(c.Text) == "" && c.Image == "") {
		return invalid("content", "question must have at least text or image content")
	}
	if c.Image != "" && !hosted(c.Image) {
		return invalid("content.image", "image must be hosted on the image store")
	}
	return nil
}

// ValidateAnswers checks every item against its variant. label is the JSON
// field name used in errors.
func ValidateAnswers(items []Answer, mode ValidationMode, hosted HostCheck, label string) error {
	for i, a := range items {
		field := fmt.Sprintf("%s[%d]", label, i)
		if !a.Type.Valid() {
			return invalid(field+".type", "type must be one of text, image, text+image")
		}

		hasText := strings.TrimSpace(a.Text) != ""
		hasImage := a.Image != ""

		switch a.Type {
		case AnswerText:
			if !hasText {
				return invalid(field+".text", "type 'text' must include text")
			}
		case AnswerImage:
			if !hasImage {
				return invalid(field+".image", "type 'image' must include image")
			}
		case AnswerTextAndImage:
			if mode == ValidateEdit && (!hasText || !hasImage) {
				return invalid(field, "type 'text+image' must include both text and image")
			}
			if !hasText && !hasImage {
				return invalid(field, "type 'text+image' must include text or image")
			}
		}

		if hasImage && !hosted(a.Image) {
			return invalid(field+".image", "image must be hosted on the image store")
		}
	}
	return nil
}

// ValidateCorrectAnswers additionally requires at least one answer.
func ValidateCorrectAnswers(items []Answer, mode ValidationMode, hosted HostCheck) error {
	if len(items) == 0 {
		return invalid("correct_answers", "at least one correct answer is required")
	}
	return ValidateAnswers(items, mode, hosted, "correct_answers")
}
