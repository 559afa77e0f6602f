// Package compose builds the completion prompt that pairs a document's scan
// results with its extracted text.
package compose

import (
	_ "embed"
	"strings"

	"github.com/brunobiangulo/docremedy/extract"
	"github.com/brunobiangulo/docremedy/report"
)

// Separator divides the issue context from the document text in a prompt.
const Separator = "----- DOCUMENT TEXT -----"

//go:embed instruction.txt
var instruction string

//go:embed assistant.txt
var assistant string

// DefaultInstruction returns the guideline preamble used when no template is
// given.
func DefaultInstruction() string {
	return strings.TrimSpace(instruction)
}

// AssistantInstruction returns the system prompt for free-form accessibility
// questions.
func AssistantInstruction() string {
	return strings.TrimSpace(assistant)
}

// Request is one analysis prompt. It is never persisted.
type Request struct {
	Instruction  string `json:"instruction"`
	IssueContext string `json:"issue_context"`
	DocumentText string `json:"document_text"`
}

// Compose pairs a record with a document. An empty template selects
// DefaultInstruction. The document text is used as is; callers enforce any
// length limit of the completion service.
func Compose(rec report.Record, doc *extract.Document, template string) Request {
	if strings.TrimSpace(template) == "" {
		template = DefaultInstruction()
	}
	var text string
	if doc != nil {
		text = doc.RawText
	}
	return Request{
		Instruction:  template,
		IssueContext: rec.IssueContext(),
		DocumentText: text,
	}
}

// Prompt renders the request as a single block: instruction, issue context,
// separator line, document text.
func (r Request) Prompt() string {
	var b strings.Builder
	b.Grow(len(r.Instruction) + len(r.IssueContext) + len(Separator) + len(r.DocumentText) + 4)
	b.WriteString(r.Instruction)
	b.WriteString("\n\n")
	b.WriteString(r.IssueContext)
	b.WriteString("\n")
	b.WriteString(Separator)
	b.WriteString("\n")
	b.WriteString(r.DocumentText)
	return b.String()
}
