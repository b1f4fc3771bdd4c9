package cli

import (
	"context"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/submit"
)

// answersSender is the offline submit transport: instead of posting to the
// backend it writes the collected answers to a YAML file, so a snapshot-driven
// fill still produces a reviewable artifact.
type answersSender struct {
	path string
}

type answerDoc struct {
	FormID    string        `yaml:"formId"`
	ClientRef string        `yaml:"clientRef,omitempty"`
	Answers   []answerEntry `yaml:"answers"`
}

// answerEntry is one collected part. Attachments are recorded by filename
// only; the bytes stay on disk where the respondent picked them.
type answerEntry struct {
	Column string `yaml:"colId"`
	Value  string `yaml:"value,omitempty"`
	File   string `yaml:"file,omitempty"`
}

func (s answersSender) Submit(_ context.Context, payload *submit.Payload) (submit.Receipt, error) {
	doc := answerDoc{FormID: payload.FormID, ClientRef: payload.Reference}
	for _, part := range payload.Parts {
		entry := answerEntry{Column: part.Name, Value: part.Value}
		if part.File != nil {
			entry.File = part.File.Filename
		}
		doc.Answers = append(doc.Answers, entry)
	}

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return submit.Receipt{}, err
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return submit.Receipt{}, err
	}
	return submit.Receipt{SubmissionID: "offline", Message: s.path}, nil
}

func (s answersSender) Update(ctx context.Context, _ string, payload *submit.Payload) (submit.Receipt, error) {
	return s.Submit(ctx, payload)
}
