package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/deepgram/pdfchat/internal/domain/chat/models"
	"github.com/deepgram/pdfchat/internal/services/chat"
)

const prompt = "> "

type styles struct {
	assistant lipgloss.Style
	heading   lipgloss.Style
	source    lipgloss.Style
	detail    lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		assistant: r.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
		heading:   r.NewStyle().Faint(true),
		source:    r.NewStyle().Bold(true),
		detail:    r.NewStyle().Foreground(lipgloss.Color("#888888")),
	}
}

// Run reads questions from in, one per line, and writes each settled answer
// to out. It returns nil at end of input or on /quit.
func Run(ctx context.Context, controller *chat.Controller, in io.Reader, out io.Writer) error {
	st := newStyles(out)
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		}

		controller.UpdateInput(line)
		if controller.Submit(ctx, line) {
			transcript := controller.Transcript()
			fmt.Fprint(out, FormatTurn(st, transcript[len(transcript)-1]))
		}
		fmt.Fprint(out, prompt)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	fmt.Fprintln(out)
	return nil
}

// FormatTurn renders an assistant turn followed by its Sources block, if any
func FormatTurn(st styles, turn models.Turn) string {
	var b strings.Builder

	b.WriteString(st.assistant.Render("assistant:"))
	b.WriteString(" ")
	b.WriteString(turn.Text())
	b.WriteString("\n")

	if len(turn.Citations) == 0 {
		return b.String()
	}

	b.WriteString(st.heading.Render("Sources:"))
	b.WriteString("\n")
	for _, citation := range turn.Citations {
		source := "Unknown source"
		if citation.SourceID != nil && *citation.SourceID != "" {
			source = *citation.SourceID
		}
		b.WriteString("  - ")
		b.WriteString(st.source.Render(source))
		b.WriteString("\n")

		if citation.PageNumber != nil {
			b.WriteString("    ")
			b.WriteString(st.detail.Render(fmt.Sprintf("Page %d", *citation.PageNumber)))
			b.WriteString("\n")
		}
	}
	return b.String()
}
