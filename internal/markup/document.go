// Package markup is an in-memory HTML document for rendered quiz options.
// Controls behave like browser form inputs so click handling can run
// server-side and in tests.
package markup

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"quiz-option-service/internal/app"
	"quiz-option-service/internal/domain"
)

const groupName = "ckname"

// Control is one rendered option row.
type Control struct {
	index   int
	kind    domain.ControlKind
	correct bool
	checked bool
	row     *html.Node
	input   *html.Node
}

// ID returns the input element id, ckid<index>.
func (c *Control) ID() string { return "ckid" + strconv.Itoa(c.index) }

// Checked reports whether the input is currently selected.
func (c *Control) Checked() bool { return c.checked }

// Document holds the option list and the classification label.
type Document struct {
	mu             sync.Mutex
	list           *html.Node
	controls       []*Control
	handlers       map[*Control][]func()
	classification string
}

var (
	_ app.Document    = (*Document)(nil)
	_ app.Annotator   = (*Document)(nil)
	_ app.Snapshotter = (*Document)(nil)
)

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		list:     &html.Node{Type: html.ElementNode, Data: "ul", DataAtom: atom.Ul, Attr: []html.Attribute{{Key: "id", Val: "optionList"}}},
		handlers: make(map[*Control][]func()),
	}
}

// New is NewDocument typed for app.DocumentFactory.
func New() app.InteractiveDocument {
	return NewDocument()
}

// CreateOption appends a row with an input and its label.
func (d *Document) CreateOption(id int, label string, kind domain.ControlKind) app.Control {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctl := &Control{index: id, kind: kind}
	inputID := ctl.ID()

	ctl.input = &html.Node{Type: html.ElementNode, Data: "input", DataAtom: atom.Input, Attr: []html.Attribute{
		{Key: "type", Val: string(kind)},
		{Key: "name", Val: groupName},
		{Key: "id", Val: inputID},
		{Key: "value", Val: strconv.FormatBool(ctl.correct)},
	}}
	lbl := &html.Node{Type: html.ElementNode, Data: "label", DataAtom: atom.Label, Attr: []html.Attribute{
		{Key: "for", Val: inputID},
	}}
	appendInner(lbl, label)

	ctl.row = &html.Node{Type: html.ElementNode, Data: "li", DataAtom: atom.Li, Attr: []html.Attribute{
		{Key: "onclick", Val: "choice(this)"},
		{Key: "id", Val: "option" + strconv.Itoa(id)},
	}}
	ctl.row.AppendChild(ctl.input)
	ctl.row.AppendChild(lbl)
	d.list.AppendChild(ctl.row)
	d.controls = append(d.controls, ctl)
	return ctl
}

// AttachClickHandler registers cb to run after c changes on a click.
// It panics if c was not created by d.
func (d *Document) AttachClickHandler(c app.Control, cb func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ctl := d.ownLocked(c, "AttachClickHandler")
	d.handlers[ctl] = append(d.handlers[ctl], cb)
}

// Annotate records the option's correctness in the value attribute of its input.
// It panics if c was not created by d.
func (d *Document) Annotate(c app.Control, correct bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ctl := d.ownLocked(c, "Annotate")
	ctl.correct = correct
	for i := range ctl.input.Attr {
		if ctl.input.Attr[i].Key == "value" {
			ctl.input.Attr[i].Val = strconv.FormatBool(correct)
		}
	}
}

// ownLocked returns c as one of d's controls. A control from another
// document would never receive clicks, so it is a programming error.
func (d *Document) ownLocked(c app.Control, op string) *Control {
	if ctl, ok := c.(*Control); ok && ctl != nil {
		for _, own := range d.controls {
			if own == ctl {
				return ctl
			}
		}
	}
	panic(fmt.Sprintf("markup: %s: %T is not a control of this document", op, c))
}

// SetClassification sets the label shown above multi-answer options.
func (d *Document) SetClassification(text string) {
	d.mu.Lock()
	d.classification = text
	d.mu.Unlock()
}

// Classification returns the label text set for the question, if any.
func (d *Document) Classification() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classification
}

// Len returns the number of rendered controls.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.controls)
}

// Control returns the control rendered at index.
func (d *Document) Control(index int) (*Control, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.controls) {
		return nil, false
	}
	return d.controls[index], true
}

// Click applies a user click to the control at index and runs its handlers.
// Radio controls select the clicked input and clear the rest of the group;
// checkboxes toggle.
func (d *Document) Click(index int) error {
	d.mu.Lock()
	if index < 0 || index >= len(d.controls) {
		d.mu.Unlock()
		return domain.ErrOptionNotFound
	}
	ctl := d.controls[index]
	if ctl.kind == domain.ControlRadio {
		for _, other := range d.controls {
			if other.kind == domain.ControlRadio {
				d.setChecked(other, other == ctl)
			}
		}
	} else {
		d.setChecked(ctl, !ctl.checked)
	}
	handlers := append([]func(){}, d.handlers[ctl]...)
	d.mu.Unlock()

	for _, h := range handlers {
		h()
	}
	return nil
}

// Restore sets the checked state of every control without firing handlers.
func (d *Document) Restore(checked []bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, ctl := range d.controls {
		if i < len(checked) {
			d.setChecked(ctl, checked[i])
		}
	}
}

func (d *Document) setChecked(ctl *Control, checked bool) {
	ctl.checked = checked
	attrs := ctl.input.Attr[:0]
	for _, a := range ctl.input.Attr {
		if a.Key != "checked" {
			attrs = append(attrs, a)
		}
	}
	if checked {
		attrs = append(attrs, html.Attribute{Key: "checked", Val: "checked"})
	}
	ctl.input.Attr = attrs
}

// Markup renders the option rows as they would appear inside the list container.
func (d *Document) Markup() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	for row := d.list.FirstChild; row != nil; row = row.NextSibling {
		_ = html.Render(&buf, row)
	}
	return buf.String()
}

// appendInner parses text as HTML inside parent, falling back to a text node.
func appendInner(parent *html.Node, text string) {
	nodes, err := html.ParseFragment(strings.NewReader(text), parent)
	if err != nil {
		parent.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		return
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
}
