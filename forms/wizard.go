// Package forms holds the multi-step drafts a user fills in before a
// contract write: campaign creation, registration and post submission.
package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// FieldErrors maps a field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return strings.Join(parts, "; ")
}

func (fe FieldErrors) add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// StepError reports which step failed validation.
type StepError struct {
	Step   int
	Name   string
	Fields FieldErrors
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %s", e.Step, e.Name, e.Fields.Error())
}

func (e *StepError) Unwrap() error { return e.Fields }

var ErrNotOnFinalStep = errors.New("submit is only allowed from the final step")

// Step is one page of a wizard. Validate returns nil or an empty map when
// the draft is acceptable for this step.
type Step[T any] struct {
	Name     string
	Validate func(T) FieldErrors
}

// Wizard is a numbered step machine over a draft. Steps are 1-based.
// Moving forward requires the current step to validate; moving back never
// does.
type Wizard[T any] struct {
	Draft T

	steps     []Step[T]
	current   int
	submitted bool
	err       error
}

func NewWizard[T any](draft T, steps ...Step[T]) *Wizard[T] {
	return &Wizard[T]{Draft: draft, steps: steps, current: 1}
}

func (w *Wizard[T]) Current() int { return w.current }

func (w *Wizard[T]) Len() int { return len(w.steps) }

func (w *Wizard[T]) StepName() string {
	if len(w.steps) == 0 {
		return ""
	}
	return w.steps[w.current-1].Name
}

func (w *Wizard[T]) Submitted() bool { return w.submitted }

// Err is the last validation or submit error, cleared by a successful move.
func (w *Wizard[T]) Err() error { return w.err }

func (w *Wizard[T]) validate(i int) error {
	s := w.steps[i-1]
	if s.Validate == nil {
		return nil
	}
	if fe := s.Validate(w.Draft); len(fe) > 0 {
		return &StepError{Step: i, Name: s.Name, Fields: fe}
	}
	return nil
}

// Next validates the current step and advances on success. On the final
// step a successful Next stays put.
func (w *Wizard[T]) Next() error {
	if len(w.steps) == 0 {
		return nil
	}
	if err := w.validate(w.current); err != nil {
		w.err = err
		return err
	}
	w.err = nil
	if w.current < len(w.steps) {
		w.current++
	}
	return nil
}

// Back moves one step back, stopping at step 1.
func (w *Wizard[T]) Back() {
	if w.current > 1 {
		w.current--
	}
	w.err = nil
}

// Submit revalidates every step and then calls submit. Any failure leaves
// the wizard on the final step with the error retained.
func (w *Wizard[T]) Submit(submit func(T) error) error {
	if w.current != len(w.steps) {
		return ErrNotOnFinalStep
	}
	for i := 1; i <= len(w.steps); i++ {
		if err := w.validate(i); err != nil {
			w.err = err
			return err
		}
	}
	if err := submit(w.Draft); err != nil {
		w.err = err
		return err
	}
	w.err = nil
	w.submitted = true
	return nil
}

// Run walks a fresh wizard over draft from the first step to submission,
// returning the first failure.
func Run[T any](draft T, steps []Step[T], submit func(T) error) error {
	w := NewWizard(draft, steps...)
	for w.Current() < w.Len() {
		if err := w.Next(); err != nil {
			return err
		}
	}
	return w.Submit(submit)
}
