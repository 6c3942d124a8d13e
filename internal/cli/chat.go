// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/docchat-tui/internal/citation"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/exchange"
	"github.com/jeranaias/docchat-tui/internal/locale"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/session"
	"github.com/jeranaias/docchat-tui/internal/storage"
)

const chatPrompt = "docchat> "

// chatCommands is the /help table.
var chatCommands = [][2]string{
	{"/new", "Start a new conversation"},
	{"/list", "List conversations"},
	{"/switch N", "Switch to conversation N from /list"},
	{"/rename NAME", "Rename the current conversation"},
	{"/pin", "Pin or unpin the current conversation"},
	{"/delete", "Delete the current conversation"},
	{"/reset", "Clear the current conversation"},
	{"/export", "Export the current conversation"},
	{"/sources", "Show the sources of the last answer"},
	{"/help", "Show this help"},
	{"/quit", "Exit"},
}

func newChatCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive line-mode chat",
		Long: "Chat with the service line by line. Input history is kept across " +
			"sessions. Ctrl+C cancels an answer in progress; Ctrl+D or /quit exits.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, root)
		},
	}
}

func runChat(cmd *cobra.Command, root *rootOptions) error {
	var reader lineReader
	confirm := session.ConfirmFunc(func(conv model.Conversation) bool {
		return reader != nil && askYesNo(reader, conv.DisplayName())
	})

	a, err := wireApp(root, wireOptions{Confirmer: confirm})
	if err != nil {
		return err
	}
	defer a.close()

	if in, ok := cmd.InOrStdin().(*os.File); ok && in == os.Stdin && isTerminal(in) {
		reader = newLinerReader()
	} else {
		reader = newScanReader(cmd.InOrStdin())
	}
	defer reader.Close()

	r := &repl{app: a, out: cmd.OutOrStdout()}
	a.ctrl.EnsureOne()
	fmt.Fprintln(r.out, styles.title.Render("docchat")+styles.dim.Render(" - type /help for commands"))

	for {
		line, err := reader.Prompt(chatPrompt)
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D, or end of piped input.
			if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
				a.logger.Debug("prompt failed", zap.Error(err))
			}
			fmt.Fprintln(r.out)
			return nil
		}
		if r.handle(cmd.Context(), strings.TrimSpace(line)) {
			return nil
		}
	}
}

// askYesNo asks to confirm the deletion of name.
func askYesNo(reader lineReader, name string) bool {
	answer, err := reader.Prompt(fmt.Sprintf("Delete %q? (y/n) ", name))
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}

// =============================================================================
// LINE READERS
// =============================================================================

// lineReader reads one line of input after printing a prompt.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linerReader provides line editing and persistent history on a terminal.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &linerReader{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (r *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = r.line.WriteHistory(f)
			f.Close()
		}
	}
	return r.line.Close()
}

// scanReader reads lines from a pipe. Prompts are not echoed.
type scanReader struct {
	scanner *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	return &scanReader{scanner: bufio.NewScanner(in)}
}

func (r *scanReader) Prompt(string) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scanReader) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

// repl executes chat input against the active conversation.
type repl struct {
	app *app
	out io.Writer
}

// texts returns the localizer in use.
func (r *repl) texts() *locale.Localizer {
	return r.app.texts
}

// handle runs one line of input. It reports whether the REPL should exit.
func (r *repl) handle(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		r.send(ctx, line)
		return false
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	id := r.app.store.ActiveID()

	switch strings.ToLower(name) {
	case "/quit", "/exit", "/q":
		return true
	case "/help", "/h", "/?":
		r.printHelp()
	case "/new":
		if _, err := r.app.ctrl.New(); errors.Is(err, session.ErrFreshExists) {
			r.status(r.texts().Text(locale.FreshExists))
		} else if err != nil {
			r.fail(err)
		} else {
			r.printActive()
		}
	case "/list", "/ls":
		r.printList()
	case "/switch", "/sw":
		r.switchTo(arg)
	case "/rename":
		if arg == "" {
			r.status("Usage: /rename NAME")
			break
		}
		if _, err := r.app.ctrl.Rename(id, arg); err != nil {
			r.fail(err)
		}
	case "/pin":
		pinned, err := r.app.ctrl.TogglePin(id)
		switch {
		case err != nil:
			r.fail(err)
		case pinned:
			r.status(r.texts().Text(locale.Pinned))
		default:
			r.status(r.texts().Text(locale.Unpinned))
		}
	case "/delete", "/rm":
		r.delete(id)
	case "/reset", "/clear":
		if err := r.app.ctrl.Reset(id); err != nil {
			r.fail(err)
		}
	case "/export":
		path, err := r.app.ctrl.Export(id)
		if err != nil {
			r.fail(err)
			break
		}
		fmt.Fprintln(r.out, styles.ok.Render(r.texts().Text(locale.Exported, path)))
	case "/sources":
		conv, err := r.app.store.Get(id)
		if err != nil {
			r.fail(err)
			break
		}
		if msg, ok := conv.LastAssistantMessage(); ok {
			printSources(r.out, r.texts(), citation.FilterSources(msg.Content, msg.Sources))
		}
	default:
		r.status(fmt.Sprintf("Unknown command %q. Type /help for commands.", name))
	}
	return false
}

// send asks line on the active conversation and prints the answer as it
// arrives. Ctrl+C cancels the exchange, not the REPL.
func (r *repl) send(parent context.Context, line string) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	id := r.app.store.ActiveID()
	streamer := newAnswerStreamer(r.app.store, id, r.out)
	r.app.store.OnChange(streamer.observe)
	defer r.app.store.OnChange(nil)

	h, err := r.app.ctrl.Send(ctx, id, line)
	if errors.Is(err, exchange.ErrBusy) {
		r.status(r.texts().Text(locale.Busy))
		return
	}
	if err != nil {
		r.fail(err)
		return
	}

	outcome := h.Wait()
	streamer.finish()
	switch outcome.State {
	case exchange.StateCancelled:
		fmt.Fprintln(r.out, styles.warn.Render("["+r.texts().Text(locale.Cancelled)+"]"))
	case exchange.StateCompleted:
		if conv, err := r.app.store.Get(id); err == nil {
			if msg, ok := conv.LastAssistantMessage(); ok {
				printSources(r.out, r.texts(), citation.FilterSources(msg.Content, msg.Sources))
			}
		}
	}
}

func (r *repl) delete(id string) {
	if !r.app.ctrl.CanDelete(id) {
		r.status(r.texts().Text(locale.LastConversation))
		return
	}
	err := r.app.ctrl.Delete(id)
	switch {
	case errors.Is(err, session.ErrDeleteDeclined):
		r.status("Not deleted")
	case errors.Is(err, session.ErrLastConversation):
		r.status(r.texts().Text(locale.LastConversation))
	case err != nil:
		r.fail(err)
	default:
		r.printActive()
	}
}

func (r *repl) switchTo(arg string) {
	list := r.app.store.ListSorted()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(list) {
		r.status(fmt.Sprintf("Usage: /switch N (1-%d)", len(list)))
		return
	}
	if err := r.app.ctrl.Select(list[n-1].ID); err != nil {
		r.fail(err)
		return
	}
	r.printActive()
}

// =============================================================================
// OUTPUT
// =============================================================================

func (r *repl) printHelp() {
	for _, c := range chatCommands {
		fmt.Fprintln(r.out, "  "+styles.label.Width(16).Render(c[0])+c[1])
	}
}

// printList prints the sidebar order: pinned first, then creation order.
func (r *repl) printList() {
	active := r.app.store.ActiveID()
	for i, conv := range r.app.store.ListSorted() {
		marker := " "
		if conv.ID == active {
			marker = ">"
		}
		pin := " "
		if conv.IsPinned {
			pin = "*"
		}
		fmt.Fprintf(r.out, "%s%s %2d. %s %s\n", marker, pin, i+1, conv.DisplayName(),
			styles.dim.Render(fmt.Sprintf("(%d messages)", conv.MessageCount())))
	}
}

func (r *repl) printActive() {
	if conv, ok := r.app.store.Active(); ok {
		r.status("> " + conv.DisplayName())
	}
}

func (r *repl) status(text string) {
	fmt.Fprintln(r.out, styles.dim.Render(text))
}

func (r *repl) fail(err error) {
	if errors.Is(err, storage.ErrConversationNotFound) {
		r.app.ctrl.EnsureOne()
	}
	fmt.Fprintln(r.out, styles.fail.Render("Error: "+err.Error()))
}
