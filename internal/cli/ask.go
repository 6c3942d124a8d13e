// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/docchat-tui/internal/citation"
	"github.com/jeranaias/docchat-tui/internal/exchange"
	"github.com/jeranaias/docchat-tui/internal/locale"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/storage"
	"github.com/jeranaias/docchat-tui/internal/util"
)

// errAnswerFailed is returned when at least one question got no answer.
var errAnswerFailed = errors.New("one or more questions were not answered")

// excerptWidth bounds the excerpt printed next to a cited page.
const excerptWidth = 80

type askOptions struct {
	json   bool
	stream bool
	raw    bool
}

// askResult is one answered question, also the --json record.
type askResult struct {
	Question       string            `json:"question"`
	ConversationID string            `json:"conversation_id"`
	State          string            `json:"state"`
	Answer         string            `json:"answer"`
	Sources        []model.SourceRef `json:"sources"`
	Error          string            `json:"error,omitempty"`
}

func newAskCmd(root *rootOptions) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask one or more questions and print the answers",
		Long: "Each argument is one question. Several questions run at the same " +
			"time, each in its own conversation, and the answers are printed in " +
			"argument order.",
		Example: `  docchat ask "What is the refund policy?"
  docchat ask --json "Who signs the contract?" "When does it expire?"
  echo "Summarize page 4" | docchat ask -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			questions, err := readQuestions(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runAsk(cmd, root, opts, questions)
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "print answers as JSON")
	cmd.Flags().BoolVar(&opts.stream, "stream", false, "print a single answer as it arrives")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "never render markdown")
	return cmd
}

// readQuestions expands a "-" argument into the questions on stdin, one per
// non-blank line.
func readQuestions(stdin io.Reader, args []string) ([]string, error) {
	var questions []string
	for _, arg := range args {
		if arg != "-" {
			if strings.TrimSpace(arg) != "" {
				questions = append(questions, arg)
			}
			continue
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read questions from stdin: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				questions = append(questions, strings.TrimSpace(line))
			}
		}
	}
	if len(questions) == 0 {
		return nil, errors.New("no question given")
	}
	return questions, nil
}

func runAsk(cmd *cobra.Command, root *rootOptions, opts *askOptions, questions []string) error {
	if opts.stream && (len(questions) > 1 || opts.json) {
		return errors.New("--stream needs exactly one question and no --json")
	}

	a, err := wireApp(root, wireOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	ids := make([]string, len(questions))
	for i := range questions {
		ids[i] = a.store.Create()
	}

	var streamer *answerStreamer
	if opts.stream {
		streamer = newAnswerStreamer(a.store, ids[0], out)
		a.store.OnChange(streamer.observe)
	}

	results := make([]askResult, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range questions {
		g.Go(func() error {
			h, err := a.ctrl.Send(gctx, ids[i], q)
			if err != nil {
				return fmt.Errorf("question %d: %w", i+1, err)
			}
			outcome := h.Wait()
			results[i] = collectResult(a.store, ids[i], q, outcome)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("questions answered", zap.Int("count", len(questions)))

	switch {
	case opts.json:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	case opts.stream:
		streamer.finish()
		printSources(out, a.texts, results[0].Sources)
	default:
		render := !opts.raw && isTerminal(out) && useColor()
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(out)
			}
			printResult(out, a.texts, res, len(results) > 1, render)
		}
	}

	for _, res := range results {
		if res.State != exchange.StateCompleted.String() {
			return errAnswerFailed
		}
	}
	return nil
}

// collectResult reads the settled answer back from the store.
func collectResult(store *storage.ConversationStore, id, question string, o exchange.Outcome) askResult {
	res := askResult{
		Question:       question,
		ConversationID: id,
		State:          o.State.String(),
		Sources:        []model.SourceRef{},
	}
	if o.Err != nil {
		res.Error = o.Err.Error()
	}
	conv, err := store.Get(id)
	if err != nil {
		return res
	}
	if msg, ok := conv.LastAssistantMessage(); ok {
		res.Answer = msg.Content
		res.Sources = citation.FilterSources(msg.Content, msg.Sources)
	}
	return res
}

// =============================================================================
// OUTPUT
// =============================================================================

func printResult(w io.Writer, texts *locale.Localizer, res askResult, header, render bool) {
	if header {
		fmt.Fprintln(w, styles.title.Render("Q: "+res.Question))
	}

	answer := res.Answer
	if res.State == exchange.StateCompleted.String() && render {
		answer = renderMarkdown(answer, wrapWidth(w))
	}
	switch res.State {
	case exchange.StateErrored.String():
		fmt.Fprintln(w, styles.fail.Render(answer))
	case exchange.StateCancelled.String():
		fmt.Fprintln(w, styles.warn.Render(texts.Text(locale.Cancelled)))
	default:
		fmt.Fprintln(w, strings.TrimRight(answer, "\n"))
	}
	printSources(w, texts, res.Sources)
}

// printSources lists the cited pages under an answer.
func printSources(w io.Writer, texts *locale.Localizer, sources []model.SourceRef) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.title.Render(texts.Text(locale.SourcesLabel)))
	for _, src := range sources {
		line := "  " + texts.Text(locale.PageLabel, src.PageNumber)
		if excerpt := util.SingleLine(src.Excerpt); excerpt != "" {
			line += styles.dim.Render(": " + util.TruncateRunes(excerpt, excerptWidth))
		}
		fmt.Fprintln(w, line)
	}
}

// renderMarkdown renders an answer for the terminal, or returns it unchanged
// if rendering fails.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// STREAMING
// =============================================================================

// answerStreamer prints the reply of one conversation as it grows. It is a
// store observer, so it runs on the exchange goroutine.
type answerStreamer struct {
	store *storage.ConversationStore
	id    string
	w     io.Writer

	mu      sync.Mutex
	printed string
}

func newAnswerStreamer(store *storage.ConversationStore, id string, w io.Writer) *answerStreamer {
	return &answerStreamer{store: store, id: id, w: w}
}

func (s *answerStreamer) observe(ch storage.Change) {
	if ch.ConversationID != s.id || ch.Kind != storage.ChangeMessages {
		return
	}
	conv, err := s.store.Get(s.id)
	if err != nil {
		return
	}
	msg, ok := conv.LastAssistantMessage()
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	content := msg.Content
	if strings.HasPrefix(content, s.printed) {
		fmt.Fprint(s.w, content[len(s.printed):])
	} else {
		// The placeholder was replaced, e.g. by an error text.
		fmt.Fprint(s.w, "\n"+content)
	}
	s.printed = content
}

// finish ends the streamed answer with a newline.
func (s *answerStreamer) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.printed != "" && !strings.HasSuffix(s.printed, "\n") {
		fmt.Fprintln(s.w)
	}
}
