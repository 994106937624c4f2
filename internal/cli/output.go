package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/fieldkit/internal/workflow"
)

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output, kept off stdout so JSON stays parseable
	Verbose   bool
}

// CLIResponse is the standard JSON response envelope.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Entity  string `json:"entity,omitempty"`
}

// JSON outputs a success payload as a JSON envelope. Text-format commands
// render their own lines and skip this.
func (f *OutputFormatter) JSON(data interface{}) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(CLIResponse{Status: "ok", Data: data})
}

// Textf writes one line of human-readable output in text format. It is a
// no-op in JSON format so envelopes stay machine-parseable.
func (f *OutputFormatter) Textf(format string, args ...interface{}) {
	if f.Format == "json" {
		return
	}
	fmt.Fprintf(f.Writer, format+"\n", args...)
}

// Fail renders err in the configured format and returns it so cobra sets a
// non-zero exit status. Validation errors keep their code and entity id.
func (f *OutputFormatter) Fail(err error) error {
	code := "INTERNAL"
	entity := ""
	var verr *workflow.ValidationError
	if errors.As(err, &verr) {
		code = string(verr.Code)
		entity = verr.EntityID
	}

	if f.Format == "json" {
		json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: err.Error(), Entity: entity},
		})
	} else {
		fmt.Fprintf(f.ErrWriter, "Error [%s]: %s\n", code, err.Error())
	}
	return err
}

// VerboseLog outputs a diagnostic line only when verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.ErrWriter, format+"\n", args...)
}
