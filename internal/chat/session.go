// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// ErrNoRetriever is returned when retrieval is requested from a session
// that has no index.
var ErrNoRetriever = errors.New("retrieval requested but no index is loaded")

// Session holds the state of one conversation. Questions are answered
// independently; earlier turns are not added to the prompt.
type Session struct {
	ID     string
	UseRAG bool

	generator Generator
	retriever Retriever
	logger    *zap.Logger
}

// NewSession creates a session with a fresh id. retriever may be nil when
// no index is available, in which case only plain questions work.
func NewSession(generator Generator, retriever Retriever, useRAG bool, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		ID:        id,
		UseRAG:    useRAG,
		generator: generator,
		retriever: retriever,
		logger:    logger.With(zap.String("session", id)),
	}
}

// Answer is the result of one question.
type Answer struct {
	Text    string
	Sources []types.RetrievedChunk
}

// Ask answers question, streaming the generated text to w as it arrives.
// With useRAG the retrieved sources are listed before the answer and
// their content is placed in the prompt.
func (s *Session) Ask(ctx context.Context, question string, useRAG bool, w io.Writer) (Answer, error) {
	var answer Answer
	st := newStyles(w)

	prompt := PlainPrompt(question)
	if useRAG {
		if s.retriever == nil {
			return answer, ErrNoRetriever
		}
		chunks, err := s.retriever.Retrieve(ctx, question)
		if err != nil {
			return answer, fmt.Errorf("retrieving context: %w", err)
		}
		answer.Sources = chunks
		writeSources(w, st, chunks)
		prompt = RAGPrompt(question, chunks)
	}
	s.logger.Debug("generating", zap.Bool("rag", useRAG), zap.Int("prompt_len", len(prompt)))

	tokens, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return answer, fmt.Errorf("generating answer: %w", err)
	}

	var text strings.Builder
	for tok := range tokens {
		if tok.Err != nil {
			answer.Text = text.String()
			fmt.Fprintln(w)
			return answer, fmt.Errorf("generating answer: %w", tok.Err)
		}
		text.WriteString(tok.Text)
		fmt.Fprint(w, tok.Text)
	}
	fmt.Fprintln(w)

	answer.Text = text.String()
	if err := ctx.Err(); err != nil {
		return answer, err
	}
	return answer, nil
}

func writeSources(w io.Writer, st styles, chunks []types.RetrievedChunk) {
	if len(chunks) == 0 {
		fmt.Fprintln(w, st.notice.Render("No matching sources found."))
		return
	}
	fmt.Fprintln(w, st.notice.Render("Sources:"))
	for i, c := range chunks {
		fmt.Fprintln(w, st.source.Render(fmt.Sprintf("  [%d] %s (%.2f)", i+1, sourceLabel(c.Metadata), c.Score)))
	}
	fmt.Fprintln(w)
}

// sourceLabel names a chunk's origin: the page title or file name, plus
// the PDF page number.
func sourceLabel(m types.DocumentMetadata) string {
	label := filepath.Base(m.Source)
	if m.Title != "" {
		label = fmt.Sprintf("%s [%s]", m.Title, label)
	}
	if m.Page > 0 {
		label = fmt.Sprintf("%s p.%d", label, m.Page)
	}
	return label
}

type styles struct {
	prompt lipgloss.Style
	notice lipgloss.Style
	source lipgloss.Style
	err    lipgloss.Style
}

// newStyles binds the chat styles to w, so output that is not a terminal
// stays plain text.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		prompt: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		notice: r.NewStyle().Bold(true),
		source: r.NewStyle().Faint(true),
		err:    r.NewStyle().Foreground(lipgloss.Color("#e53935")),
	}
}
