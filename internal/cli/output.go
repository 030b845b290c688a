package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"mcphost/internal/server"
	"mcphost/internal/supervisor"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/mcp"
	"sigs.k8s.io/yaml"
)

// maxDescriptionWidth truncates tool descriptions in table view.
const maxDescriptionWidth = 60

// Printer renders command results in the selected output format.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	format OutputFormat
	quiet  bool
}

// NewPrinter creates a printer writing results to out and progress to errOut.
func NewPrinter(out, errOut io.Writer, format OutputFormat, quiet bool) *Printer {
	return &Printer{out: out, errOut: errOut, format: format, quiet: quiet}
}

// WithSpinner runs fn while showing a spinner on the error stream.
func (p *Printer) WithSpinner(suffix string, fn func() error) error {
	if p.quiet {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(p.errOut))
	s.Suffix = " " + suffix
	s.Start()
	err := fn()
	s.Stop()

	if err != nil {
		fmt.Fprintln(p.errOut, text.FgRed.Sprint("❌ "+suffix+" failed"))
	}
	return err
}

// PrintTools renders the aggregated tool catalog.
func (p *Printer) PrintTools(tools []map[string]any) error {
	if p.format != OutputFormatTable {
		return p.printStructured(map[string]any{"tools": tools})
	}
	if len(tools) == 0 {
		fmt.Fprintln(p.out, text.FgYellow.Sprint("No tools found"))
		return nil
	}

	sorted := append([]map[string]any(nil), tools...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return stringField(sorted[i], "name") < stringField(sorted[j], "name")
	})

	t := p.newTable()
	t.AppendHeader(table.Row{"NAME", "SERVER", "DESCRIPTION"})
	for _, tool := range sorted {
		t.AppendRow(table.Row{
			stringField(tool, "name"),
			stringField(tool, "_server_name"),
			truncate(firstLine(stringField(tool, "description")), maxDescriptionWidth),
		})
	}
	t.Render()
	return nil
}

// PrintServers renders the server states.
func (p *Printer) PrintServers(states []supervisor.ServerState) error {
	if p.format != OutputFormatTable {
		return p.printStructured(map[string]any{"servers": states})
	}
	if len(states) == 0 {
		fmt.Fprintln(p.out, text.FgYellow.Sprint("No servers configured"))
		return nil
	}

	t := p.newTable()
	t.AppendHeader(table.Row{"NAME", "STATE", "PID", "LAST STATUS", "AUTO START", "COMMAND"})
	for _, state := range states {
		pid := ""
		running := text.FgHiBlack.Sprint("stopped")
		if state.Running {
			pid = fmt.Sprintf("%d", state.PID)
			running = text.FgGreen.Sprint("running")
		}
		t.AppendRow(table.Row{
			state.Name,
			running,
			pid,
			string(state.Spec.LastStatus),
			state.Spec.AutoStart,
			strings.TrimSpace(state.Spec.Command + " " + strings.Join(state.Spec.Args, " ")),
		})
	}
	t.Render()
	return nil
}

// PrintLastActive renders the names recorded as running.
func (p *Printer) PrintLastActive(names []string) error {
	if names == nil {
		names = []string{}
	}
	if p.format != OutputFormatTable {
		return p.printStructured(map[string]any{"last_active_servers": names})
	}
	if len(names) == 0 {
		fmt.Fprintln(p.out, text.FgYellow.Sprint("No servers recorded as running"))
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(p.out, name)
	}
	return nil
}

// PrintStatus renders the reply of a lifecycle command.
func (p *Printer) PrintStatus(status server.StatusResponse) error {
	if p.format != OutputFormatTable {
		return p.printStructured(status)
	}
	msg := fmt.Sprintf("Server %s %s", status.Server, status.Status)
	if status.PID > 0 {
		msg += fmt.Sprintf(" (pid %d)", status.PID)
	}
	fmt.Fprintln(p.out, text.FgGreen.Sprint("✓ ")+msg)
	return nil
}

// PrintCallResult renders a tools/call result. In table mode the text content
// is printed as is; a result flagged isError is returned as an error.
func (p *Printer) PrintCallResult(raw json.RawMessage) error {
	result, err := mcp.ParseCallToolResult(&raw)
	if err != nil {
		// Not an MCP result; show whatever the backend returned.
		return p.printRaw(raw)
	}

	texts := resultTexts(result)
	if result.IsError {
		return fmt.Errorf("%s", strings.Join(texts, "\n"))
	}

	if p.format != OutputFormatTable {
		return p.printRaw(raw)
	}
	if len(texts) == 0 {
		fmt.Fprintln(p.out, text.FgYellow.Sprint("No results"))
		return nil
	}
	for _, t := range texts {
		fmt.Fprintln(p.out, t)
	}
	return nil
}

func (p *Printer) printRaw(raw json.RawMessage) error {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		fmt.Fprintln(p.out, string(raw))
		return nil
	}
	if p.format == OutputFormatTable {
		return p.printJSON(data)
	}
	return p.printStructured(data)
}

func (p *Printer) printStructured(data any) error {
	if p.format == OutputFormatYAML {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		yamlData, err := yaml.JSONToYAML(jsonData)
		if err != nil {
			return fmt.Errorf("failed to convert to YAML: %w", err)
		}
		_, err = p.out.Write(yamlData)
		return err
	}
	return p.printJSON(data)
}

func (p *Printer) printJSON(data any) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(p.out, string(encoded))
	return nil
}

func (p *Printer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleLight)
	t.Style().Options = table.OptionsNoBordersAndSeparators
	t.Style().Format.Header = text.FormatUpper
	return t
}

func resultTexts(result *mcp.CallToolResult) []string {
	var texts []string
	for _, content := range result.Content {
		if textContent, ok := mcp.AsTextContent(content); ok {
			texts = append(texts, textContent.Text)
		}
	}
	return texts
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func truncate(s string, width int) string {
	if len([]rune(s)) <= width {
		return s
	}
	return string([]rune(s)[:width-3]) + "..."
}
