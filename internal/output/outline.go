package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/tanq16/coursekeep/internal/outline"
)

// RenderOutline writes the course header followed by one line per section.
func RenderOutline(w io.Writer, header *outline.HeaderRow, sections []outline.Section) {
	fmt.Fprintln(w, headerStyle.Render(header.Title()))
	if detail := header.Detail(); detail != "" {
		fmt.Fprintln(w, strings.Repeat(" ", 2)+detailStyle.Render(detail))
	}
	fmt.Fprintln(w)
	width, _ := terminalSize()
	for _, s := range sections {
		fmt.Fprintln(w, sectionLine(s, width))
	}
}

func sectionLine(s outline.Section, width int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", 2))
	b.WriteString(StateSymbol(s.State))
	b.WriteString(" ")
	b.WriteString(truncate(s.DisplayName, max(10, width/2)))
	if s.Visible {
		b.WriteString(" ")
		b.WriteString(debugStyle.Render(fmt.Sprintf("(%d/%d)", s.Complete, s.Videos)))
	}
	if s.Format != "" {
		b.WriteString(" ")
		b.WriteString(streamStyle.Render(s.Format))
	}
	if s.Graded {
		b.WriteString(" ")
		b.WriteString(warningStyle.Render(StyleSymbols["graded"]))
	}
	b.WriteString(" ")
	b.WriteString(debugStyle.Render("[" + s.ID + "]"))
	return b.String()
}
