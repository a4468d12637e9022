package domain

import "time"

// ControlKind is the type of selectable control rendered for an option.
type ControlKind string

const (
	ControlRadio    ControlKind = "radio"
	ControlCheckbox ControlKind = "checkbox"
)

// Option is one selectable choice of a rendered question.
type Option struct {
	Text      string `json:"text"`
	IsChecked bool   `json:"isChecked"`
	IsCorrect bool   `json:"isCorrect"`
}

// AnswerKey lists the letters (A, B, C, ...) of the correct options.
type AnswerKey []string

// Question carries the raw host content a question is rendered from.
type Question struct {
	ID          string `json:"id"`
	OptionsHTML string `json:"optionsHtml"` // inner HTML of the options container
	AnswerHTML  string `json:"answerHtml"`  // markup of the answer-key container
}

// RenderState is the state of one rendered question, shared with the host page.
type RenderState struct {
	ID             string      `json:"id"`
	QuestionID     string      `json:"questionId"`
	Options        []Option    `json:"options"`
	ClickNum       int         `json:"clickNum"`
	CorrectAnswer  AnswerKey   `json:"correctAnswer"`
	List           string      `json:"list"`
	Classification string      `json:"classification,omitempty"`
	Kind           ControlKind `json:"kind"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Clone returns a deep copy safe to hand out to other goroutines.
func (s RenderState) Clone() RenderState {
	out := s
	out.Options = append([]Option(nil), s.Options...)
	out.CorrectAnswer = append(AnswerKey(nil), s.CorrectAnswer...)
	return out
}

// GradeResult summarizes the selections of a rendered question.
type GradeResult struct {
	StateID       string    `json:"stateId"`
	Correct       bool      `json:"correct"`
	Selected      AnswerKey `json:"selected"`
	CorrectAnswer AnswerKey `json:"correctAnswer"`
	ClickNum      int       `json:"clickNum"`
	KeyMatch      string    `json:"keyMatch"`
}

// Contains reports whether letter appears in the key.
func (k AnswerKey) Contains(letter string) bool {
	for _, l := range k {
		if l == letter {
			return true
		}
	}
	return false
}
