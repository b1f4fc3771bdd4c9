// Package tui fills a form session interactively in the terminal. A
// PromptDriver abstraction keeps the walking logic testable; the default
// driver speaks survey/v2.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/session"
	"github.com/goliatone/go-formflow/pkg/submit"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Filler walks a loaded session's columns in display order, prompting for
// each input column and finishing with the submit flow.
type Filler struct {
	session       *session.Session
	driver        PromptDriver
	pageSize      int
	confirmSubmit bool
	readFile      func(string) ([]byte, error)
}

// Option configures a Filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithPageSize caps the visible rows of select prompts.
func WithPageSize(n int) Option {
	return func(f *Filler) {
		if n > 0 {
			f.pageSize = n
		}
	}
}

// WithoutConfirm skips the final are-you-sure prompt before submitting.
func WithoutConfirm() Option {
	return func(f *Filler) {
		f.confirmSubmit = false
	}
}

// WithFileReader overrides how upload paths are read from disk.
func WithFileReader(read func(string) ([]byte, error)) Option {
	return func(f *Filler) {
		if read != nil {
			f.readFile = read
		}
	}
}

// NewFiller constructs a filler over a loaded session.
func NewFiller(s *session.Session, opts ...Option) *Filler {
	f := &Filler{
		session:       s,
		driver:        newSurveyDriver(),
		confirmSubmit: true,
		readFile:      os.ReadFile,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run prompts through every column and submits. The session must already be
// loaded; callers keep ownership of the load and reload lifecycle.
func (f *Filler) Run(ctx context.Context) (submit.Result, error) {
	if phase := f.session.Phase(); phase != session.PhaseReady {
		return submit.Result{}, fmt.Errorf("tui: session not ready (phase %s)", phase)
	}

	version := f.session.Version()
	if banner := bannerText(version); banner != "" {
		if err := f.driver.Info(ctx, banner); err != nil {
			return submit.Result{}, err
		}
	}

	for _, column := range version.Columns {
		if err := f.fillColumn(ctx, column); err != nil {
			return submit.Result{}, err
		}
	}

	if f.confirmSubmit {
		message := "Submit the form?"
		if version.Fee > 0 {
			message = fmt.Sprintf("Submit the form and pay %d?", version.Fee)
		}
		ok, err := f.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: true})
		if err != nil {
			return submit.Result{}, err
		}
		if !ok {
			return submit.Result{}, ErrAborted
		}
	}

	result, err := f.session.Submit(ctx)
	if err != nil {
		f.reportSubmitErr(ctx, err)
		return submit.Result{}, err
	}
	if result.Receipt.Message != "" {
		_ = f.driver.Info(ctx, result.Receipt.Message)
	}
	return result, nil
}

func (f *Filler) fillColumn(ctx context.Context, column schema.ColumnDefinition) error {
	if column.DataType.Class() == schema.InputStatic {
		return f.driver.Info(ctx, staticText(column))
	}
	if column.ReadOnly {
		if value, ok := f.session.Value(column.ID); ok {
			return f.driver.Info(ctx, fmt.Sprintf("%s: %s", column.Name, value.String()))
		}
		return nil
	}

	switch column.DataType {
	case schema.DataTypeBoolean:
		return f.fillBoolean(ctx, column)
	case schema.DataTypeSelect, schema.DataTypeRadio:
		return f.fillChoice(ctx, column)
	case schema.DataTypeCheckbox:
		return f.fillMulti(ctx, column)
	case schema.DataTypeTextarea:
		return f.fillTextArea(ctx, column)
	case schema.DataTypeFile, schema.DataTypePhoto:
		return f.fillUpload(ctx, column)
	default:
		return f.fillScalar(ctx, column)
	}
}

func (f *Filler) fillScalar(ctx context.Context, column schema.ColumnDefinition) error {
	cfg := InputConfig{
		Message:   promptMessage(column),
		Validator: f.validator(column),
	}
	if current, ok := f.session.Value(column.ID); ok {
		cfg.Default = current.String()
	}

	var text string
	var err error
	if validation.ParseRule(column.ValidationRule) == validation.RulePassword {
		text, err = f.driver.Password(ctx, cfg)
	} else {
		text, err = f.driver.Input(ctx, cfg)
	}
	if err != nil {
		return err
	}
	return f.session.SetValue(column.ID, text)
}

func (f *Filler) fillBoolean(ctx context.Context, column schema.ColumnDefinition) error {
	ok, err := f.driver.Confirm(ctx, ConfirmConfig{Message: promptMessage(column)})
	if err != nil {
		return err
	}
	if ok {
		return f.session.SetValue(column.ID, "1")
	}
	return f.session.SetValue(column.ID, "0")
}

func (f *Filler) fillChoice(ctx context.Context, column schema.ColumnDefinition) error {
	labels := f.session.OptionLabels(column.ID)
	if len(labels) == 0 {
		// Option fetch failures degrade the column to empty; there is
		// nothing to choose from.
		return f.driver.Info(ctx, fmt.Sprintf("%s: no options available", column.Name))
	}
	options := labels
	if !column.Mandatory {
		options = append([]string{"(skip)"}, labels...)
	}

	idx, err := f.driver.Select(ctx, SelectConfig{
		Message:      promptMessage(column),
		Options:      options,
		DefaultIndex: 0,
		PageSize:     f.pageSize,
	})
	if err != nil {
		return err
	}
	if !column.Mandatory {
		if idx == 0 {
			return f.session.SetValue(column.ID, "")
		}
		idx--
	}
	if idx < 0 || idx >= len(labels) {
		return nil
	}
	return f.session.SetValue(column.ID, labels[idx])
}

func (f *Filler) fillMulti(ctx context.Context, column schema.ColumnDefinition) error {
	labels := f.session.OptionLabels(column.ID)
	if len(labels) == 0 {
		return f.driver.Info(ctx, fmt.Sprintf("%s: no options available", column.Name))
	}

	indices, err := f.driver.MultiSelect(ctx, SelectConfig{
		Message:  promptMessage(column),
		Options:  labels,
		PageSize: f.pageSize,
	})
	if err != nil {
		return err
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(labels) {
			continue
		}
		if err := f.session.ToggleSelection(column.ID, labels[idx]); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) fillTextArea(ctx context.Context, column schema.ColumnDefinition) error {
	text, err := f.driver.TextArea(ctx, TextAreaConfig{Message: promptMessage(column)})
	if err != nil {
		return err
	}
	return f.session.SetValue(column.ID, text)
}

func (f *Filler) fillUpload(ctx context.Context, column schema.ColumnDefinition) error {
	path, err := f.driver.Input(ctx, InputConfig{
		Message: promptMessage(column) + " (file path)",
		Help:    "Leave empty to skip",
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" {
		return nil
	}

	data, err := f.readFile(path)
	if err != nil {
		return f.driver.Info(ctx, fmt.Sprintf("%s: cannot read %s: %v", column.Name, path, err))
	}

	filename := baseName(path)
	if column.DataType == schema.DataTypePhoto {
		err = f.session.AttachPhoto(column.ID, filename, data)
		var oerr *session.OversizedUploadError
		if errors.As(err, &oerr) {
			return f.driver.Info(ctx, fmt.Sprintf("%s: file too large (%d bytes, limit %d)", column.Name, oerr.Size, oerr.Limit))
		}
		return err
	}
	return f.session.Attach(column.ID, filename, data)
}

// validator adapts column validation into a per-keystroke prompt validator.
func (f *Filler) validator(column schema.ColumnDefinition) func(string) error {
	return func(text string) error {
		msg := validation.Evaluate(column, schema.Text(text), text != "")
		if msg != "" {
			return errors.New(msg)
		}
		return nil
	}
}

func (f *Filler) reportSubmitErr(ctx context.Context, err error) {
	var verr *session.ValidationError
	if errors.As(err, &verr) {
		for id, msg := range verr.Errors {
			_ = f.driver.Info(ctx, fmt.Sprintf("%s: %s", id, msg))
		}
		return
	}
	if submit.IsAuthExpired(err) {
		return
	}
	_ = f.driver.Info(ctx, err.Error())
}

func promptMessage(column schema.ColumnDefinition) string {
	if column.Mandatory {
		return column.Name + " *"
	}
	return column.Name
}

func staticText(column schema.ColumnDefinition) string {
	if level := column.DataType.HeadingLevel(); level > 0 {
		marker := strings.Repeat("#", level)
		return marker + " " + column.Name
	}
	return column.Name
}

func bannerText(version schema.FormVersion) string {
	if version.Banner != "" {
		return version.Banner
	}
	return version.Title
}

func baseName(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
