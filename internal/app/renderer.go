package app

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"quiz-option-service/internal/domain"
)

// DefaultMultiLabel is the classification text shown for multi-answer questions.
const DefaultMultiLabel = "多选题："

// Control is a rendered selectable element.
type Control interface {
	ID() string
	Checked() bool
}

// Document is the rendering surface the renderer writes controls into.
type Document interface {
	CreateOption(id int, label string, kind domain.ControlKind) Control
	AttachClickHandler(c Control, cb func())
	SetClassification(text string)
}

// Snapshotter is implemented by documents that can serialize their controls.
type Snapshotter interface {
	Markup() string
}

// Annotator is implemented by documents that record each option's correctness on its control.
type Annotator interface {
	Annotate(c Control, correct bool)
}

// InteractiveDocument is a Document that can replay user clicks.
type InteractiveDocument interface {
	Document
	Click(index int) error
	Restore(checked []bool)
}

// DocumentFactory creates an empty document for one render.
type DocumentFactory func() InteractiveDocument

// TextExtractor returns the visible text of a markup fragment.
type TextExtractor func(markup string) string

// RenderOptions controls a single render pass.
type RenderOptions struct {
	Shuffle    bool
	Rand       *rand.Rand
	MultiLabel string
	InnerText  TextExtractor
}

var (
	divTag       = regexp.MustCompile(`</?div>`)
	newlineRuns  = regexp.MustCompile(`\n+`)
	brTag        = regexp.MustCompile(`<br.*?>`)
	leadingNL    = regexp.MustCompile(`^\n`)
	trailingNL   = regexp.MustCompile(`\n$`)
	lineBreak    = regexp.MustCompile(`\r\n|\n`)
	keyLetter    = regexp.MustCompile(`[A-F]`)
	letterPrefix = regexp.MustCompile(`^[A-Fa-f]\. 0*`)
)

// NormalizeOptions turns the options container markup into one string per option.
func NormalizeOptions(raw string) []string {
	raw = divTag.ReplaceAllString(raw, "\n")
	raw = newlineRuns.ReplaceAllString(raw, "\n")
	raw = brTag.ReplaceAllString(raw, "\n")
	raw = leadingNL.ReplaceAllString(raw, "")
	raw = trailingNL.ReplaceAllString(raw, "")

	lines := make([]string, 0)
	for _, line := range lineBreak.Split(raw, -1) {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ParseAnswerKey collects the option letters A-F from the answer text, in order.
func ParseAnswerKey(text string) (domain.AnswerKey, error) {
	letters := keyLetter.FindAllString(strings.ToUpper(text), -1)
	if len(letters) == 0 {
		return nil, domain.ErrAnswerKeyEmpty
	}
	return domain.AnswerKey(letters), nil
}

// Letter returns the label letter of the option at index i.
func Letter(i int) string {
	return string(rune('A' + i))
}

// CleanLabel trims the option text and strips a leading "X. " prefix.
func CleanLabel(text string) string {
	return letterPrefix.ReplaceAllString(strings.TrimSpace(text), "")
}

// BuildOptions creates the option list; position i is correct when Letter(i) is in key.
func BuildOptions(lines []string, key domain.AnswerKey) []domain.Option {
	options := make([]domain.Option, 0, len(lines))
	for i, line := range lines {
		options = append(options, domain.Option{
			Text:      CleanLabel(line),
			IsCorrect: key.Contains(Letter(i)),
		})
	}
	return options
}

// Shuffle returns the options in random order by repeatedly moving a random
// remaining element to the output. The input slice is consumed.
func Shuffle(options []domain.Option, rnd *rand.Rand) []domain.Option {
	out := make([]domain.Option, 0, len(options))
	for len(options) > 0 {
		r := rnd.Intn(len(options))
		out = append(out, options[r])
		options = append(options[:r], options[r+1:]...)
	}
	return out
}

// CanonicalKey lists the letters of the correct options at their current positions.
func CanonicalKey(options []domain.Option) domain.AnswerKey {
	key := domain.AnswerKey{}
	for i, opt := range options {
		if opt.IsCorrect {
			key = append(key, Letter(i))
		}
	}
	return key
}

// KindFor picks radio controls for exactly one correct letter, checkboxes otherwise.
func KindFor(key domain.AnswerKey) domain.ControlKind {
	if len(key) == 1 {
		return domain.ControlRadio
	}
	return domain.ControlCheckbox
}

// Render parses the question, builds its options and mounts them into doc.
// The returned state is owned by the caller and updated by the click handlers.
func Render(doc Document, question domain.Question, opts RenderOptions) (*domain.RenderState, error) {
	answerText := question.AnswerHTML
	if opts.InnerText != nil {
		answerText = opts.InnerText(answerText)
	}
	parsed, err := ParseAnswerKey(answerText)
	if err != nil {
		return nil, fmt.Errorf("question %q: %w", question.ID, err)
	}

	state := &domain.RenderState{QuestionID: question.ID}
	if len(parsed) > 1 {
		label := opts.MultiLabel
		if label == "" {
			label = DefaultMultiLabel
		}
		state.Classification = label
		doc.SetClassification(label)
	}

	options := BuildOptions(NormalizeOptions(question.OptionsHTML), parsed)
	if opts.Shuffle {
		rnd := opts.Rand
		if rnd == nil {
			rnd = rand.New(rand.NewSource(rand.Int63()))
		}
		options = Shuffle(options, rnd)
	}
	state.Options = options
	state.CorrectAnswer = CanonicalKey(options)
	state.Kind = KindFor(state.CorrectAnswer)

	Mount(doc, state)
	if snap, ok := doc.(Snapshotter); ok {
		state.List = snap.Markup()
	}
	return state, nil
}

// Mount creates one control per option of state and wires its click handler.
// It is also used to rebuild a document for a restored state.
func Mount(doc Document, state *domain.RenderState) []Control {
	controls := make([]Control, len(state.Options))
	for i, opt := range state.Options {
		controls[i] = doc.CreateOption(i, opt.Text, state.Kind)
		if a, ok := doc.(Annotator); ok {
			a.Annotate(controls[i], opt.IsCorrect)
		}
	}
	for i := range controls {
		doc.AttachClickHandler(controls[i], func() {
			Choose(state, controls, i)
		})
	}
	return controls
}

// Choose is the click callback. Multi-answer questions copy only the clicked
// control; otherwise every option is synced from its control.
func Choose(state *domain.RenderState, controls []Control, index int) {
	state.ClickNum++
	if len(state.CorrectAnswer) > 1 {
		state.Options[index].IsChecked = controls[index].Checked()
		return
	}
	for n := range state.Options {
		state.Options[n].IsChecked = controls[n].Checked()
	}
}

// Grade reports whether every option's checked flag matches its correctness.
func Grade(state domain.RenderState) domain.GradeResult {
	result := domain.GradeResult{
		StateID:       state.ID,
		Correct:       true,
		Selected:      domain.AnswerKey{},
		CorrectAnswer: append(domain.AnswerKey{}, state.CorrectAnswer...),
		ClickNum:      state.ClickNum,
	}
	for i, opt := range state.Options {
		if opt.IsChecked {
			result.Selected = append(result.Selected, Letter(i))
		}
		if opt.IsChecked != opt.IsCorrect {
			result.Correct = false
		}
	}
	result.KeyMatch = CompareLetters(result.Selected, result.CorrectAnswer).String()
	return result
}
