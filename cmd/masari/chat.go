package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pbaille/masari/internal/dialogue"
)

var (
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	replyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f2f2f2"))
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")).Bold(true)
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")).Border(lipgloss.RoundedBorder()).Padding(0, 1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)

func renderReply(r dialogue.Reply) string {
	var b strings.Builder
	switch {
	case r.Question != "":
		b.WriteString(questionStyle.Render(r.Question))
	case r.Err != nil:
		b.WriteString(errorStyle.Render(r.Text))
	default:
		b.WriteString(replyStyle.Render(r.Text))
	}
	if r.Answer != "" {
		b.WriteString("\n")
		b.WriteString(answerStyle.Render(r.Answer))
	}
	if verbose && r.Intent != nil {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%s/%s %v", r.Intent.Type, r.Intent.Action, r.Transitions)))
	}
	return b.String()
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive session; :reset drops a pending question, :quit exits",
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := replyLang()
			if err != nil {
				return err
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			voice, release := newVoice()
			defer release()
			ctrl := newController(ctx, s, voice)

			out := cmd.OutOrStdout()
			sess := dialogue.NewSession(newSessionID(), lang)
			in := bufio.NewScanner(cmd.InOrStdin())

			fmt.Fprintln(out, mutedStyle.Render("masari ("+string(lang)+") :quit to exit"))
			for {
				sess = ctrl.Listen(sess)
				fmt.Fprint(out, promptStyle.Render("> "))
				if !in.Scan() {
					fmt.Fprintln(out)
					return in.Err()
				}

				line := strings.TrimSpace(in.Text())
				switch line {
				case "":
					continue
				case ":quit", ":q", "exit":
					return nil
				case ":reset":
					sess = ctrl.Reset(sess)
					fmt.Fprintln(out, mutedStyle.Render("reset"))
					continue
				}

				var reply dialogue.Reply
				sess, reply = ctrl.Turn(ctx, sess, line)
				fmt.Fprintln(out, renderReply(reply))
			}
		},
	}
}
