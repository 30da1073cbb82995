// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// REPL reads questions from in, one per line, and answers each on w until
// in is exhausted, the context ends, or the user types /quit. The commands
// "/rag on" and "/rag off" toggle retrieval; "/rag" reports its state.
// A failed question is reported and the loop continues.
func (s *Session) REPL(ctx context.Context, in io.Reader, w io.Writer) error {
	st := newStyles(w)
	fmt.Fprintf(w, "Session %s. Retrieval is %s. Type /rag on|off to toggle it, /quit to exit.\n", s.ID, onOff(s.UseRAG))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(w, st.prompt.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/rag":
			fmt.Fprintf(w, "Retrieval is %s.\n", onOff(s.UseRAG))
			continue
		case strings.HasPrefix(line, "/rag "):
			switch arg := strings.TrimSpace(strings.TrimPrefix(line, "/rag ")); arg {
			case "on":
				s.UseRAG = true
			case "off":
				s.UseRAG = false
			default:
				fmt.Fprintln(w, st.err.Render(fmt.Sprintf("unknown /rag argument %q; use on or off", arg)))
				continue
			}
			fmt.Fprintf(w, "Retrieval is %s.\n", onOff(s.UseRAG))
			continue
		case strings.HasPrefix(line, "/"):
			fmt.Fprintln(w, st.err.Render(fmt.Sprintf("unknown command %s", line)))
			continue
		}

		if _, err := s.Ask(ctx, line, s.UseRAG, w); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(w, st.err.Render("error: "+err.Error()))
		}
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
