package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xiaot623/gogo/sdk/domain"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatPretty is human-readable output with tables and colors
	FormatPretty OutputFormat = "pretty"
	// FormatJSON is indented JSON, one document per command
	FormatJSON OutputFormat = "json"
)

// ParseFormat converts a string to OutputFormat
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "pretty", "":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Formatter renders command results.
type Formatter interface {
	// Output renders a command result. Unknown types are printed as JSON.
	Output(data any) error
	// Message prints a status line. JSON output ignores it.
	Message(format string, args ...any)
	// Fragment writes a streamed chat fragment as it arrives.
	Fragment(chunk *domain.ChatChunk) error
	// EndStream finishes a run of fragments.
	EndStream() error
}

// DeleteResult lists the sessions a delete command removed.
type DeleteResult struct {
	Deleted []string `json:"deleted"`
}

// NewFormatter returns the formatter for format writing to w.
func NewFormatter(format OutputFormat, w io.Writer) Formatter {
	if format == FormatJSON {
		return &jsonFormatter{w: w}
	}
	return &prettyFormatter{w: w}
}

type jsonFormatter struct {
	w io.Writer
}

func (f *jsonFormatter) Output(data any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *jsonFormatter) Message(string, ...any) {}

// Fragment writes one JSON object per line so streamed output stays parseable.
func (f *jsonFormatter) Fragment(chunk *domain.ChatChunk) error {
	return json.NewEncoder(f.w).Encode(chunk)
}

func (f *jsonFormatter) EndStream() error { return nil }

type prettyFormatter struct {
	w io.Writer
}

func (f *prettyFormatter) Message(format string, args ...any) {
	fmt.Fprintf(f.w, "%s %s\n", SuccessIcon, SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func (f *prettyFormatter) Fragment(chunk *domain.ChatChunk) error {
	_, err := io.WriteString(f.w, chunk.Delta.Content)
	return err
}

func (f *prettyFormatter) EndStream() error {
	_, err := fmt.Fprintln(f.w)
	return err
}

func (f *prettyFormatter) Output(data any) error {
	switch v := data.(type) {
	case *domain.Session:
		f.session(v)
	case []domain.Session:
		f.sessions(v)
	case []domain.ChatMLMessage:
		f.history(v)
	case []domain.Suggestion:
		f.suggestions(v)
	case DeleteResult:
		for _, id := range v.Deleted {
			f.Message("Deleted %s", id)
		}
	case *domain.ChatResponse:
		fmt.Fprintln(f.w, AssistantStyle.Render(v.Content()))
		if v.Usage != nil {
			fmt.Fprintln(f.w, DimStyle.Render(fmt.Sprintf("%s, %d tokens", v.FinishReason, v.Usage.TotalTokens)))
		}
	default:
		return (&jsonFormatter{w: f.w}).Output(data)
	}
	return nil
}

func (f *prettyFormatter) session(s *domain.Session) {
	fmt.Fprintf(f.w, "%s %s\n", BoldStyle.Render(s.ID), DimStyle.Render(fmt.Sprintf("(agent %s)", s.AgentID)))
	f.field("User:", s.UserID)
	f.field("Situation:", s.Situation)
	if len(s.Metadata) > 0 {
		data, _ := json.Marshal(s.Metadata)
		f.field("Metadata:", string(data))
	}
	if s.TokenBudget != nil {
		f.field("Token budget:", fmt.Sprint(*s.TokenBudget))
	}
	f.field("Context overflow:", string(s.ContextOverflow))
	if !s.CreatedAt.IsZero() {
		f.field("Created:", FormatTime(s.CreatedAt))
	}
	if !s.UpdatedAt.IsZero() {
		f.field("Updated:", FormatTime(s.UpdatedAt))
	}
}

func (f *prettyFormatter) field(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(f.w, "   %s %s\n", DimStyle.Render(label), value)
}

func (f *prettyFormatter) sessions(sessions []domain.Session) {
	if len(sessions) == 0 {
		fmt.Fprintf(f.w, "%s %s\n", InfoIcon, InfoStyle.Render("No sessions found"))
		return
	}
	tbl := NewTable(f.w, "ID", "AGENT", "USER", "SITUATION", "CREATED")
	for _, s := range sessions {
		tbl.AddRow(s.ID, s.AgentID, s.UserID, Truncate(s.Situation, 40), FormatTime(s.CreatedAt))
	}
	tbl.Print()
}

func (f *prettyFormatter) history(messages []domain.ChatMLMessage) {
	if len(messages) == 0 {
		fmt.Fprintf(f.w, "%s %s\n", InfoIcon, InfoStyle.Render("No messages"))
		return
	}
	for _, m := range messages {
		role := BoldStyle.Render(string(m.Role) + ":")
		content := m.Content
		if m.Role == domain.RoleAssistant {
			content = AssistantStyle.Render(content)
		}
		fmt.Fprintf(f.w, "%s %s\n", role, content)
	}
}

func (f *prettyFormatter) suggestions(suggestions []domain.Suggestion) {
	if len(suggestions) == 0 {
		fmt.Fprintf(f.w, "%s %s\n", InfoIcon, InfoStyle.Render("No suggestions"))
		return
	}
	tbl := NewTable(f.w, "TARGET", "CONTENT", "CREATED")
	for _, s := range suggestions {
		tbl.AddRow(string(s.Target), Truncate(s.Content, 60), FormatTime(s.CreatedAt))
	}
	tbl.Print()
}

// FormatTime formats t in local time for display.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// Error prints an error line to w.
func Error(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", ErrorIcon, ErrorStyle.Render(err.Error()))
}
