package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Povusa/TECNOMAT/internal/cli/formatter"
	"github.com/Povusa/TECNOMAT/internal/config"
	"github.com/Povusa/TECNOMAT/internal/contract"
	"github.com/Povusa/TECNOMAT/internal/domain"
	"github.com/Povusa/TECNOMAT/internal/service"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

// errReportFailed makes the process exit non-zero when generation fails.
var errReportFailed = errors.New("report generation failed")

// prompter asks the user for the answer to one assistant turn.
type prompter interface {
	Ask(t contract.Turn) (string, error)
}

// huhPrompter asks through a one-field huh form: a select when the turn
// offers options, a text input otherwise.
type huhPrompter struct {
	in         io.Reader
	out        io.Writer
	accessible bool
	theme      *huh.Theme
}

func (p huhPrompter) Ask(t contract.Turn) (string, error) {
	var answer string
	form := answerForm(t, &answer, p.theme).
		WithInput(p.in).
		WithOutput(p.out).
		WithAccessible(p.accessible)
	if err := form.Run(); err != nil {
		return "", err
	}
	return answer, nil
}

// answerForm builds the form for one turn, storing the reply in answer.
func answerForm(t contract.Turn, answer *string, theme *huh.Theme) *huh.Form {
	var field huh.Field
	if len(t.Options) > 0 {
		field = huh.NewSelect[string]().
			Title("Respuesta").
			Options(huh.NewOptions(t.Options...)...).
			Value(answer)
	} else {
		input := huh.NewInput().
			Title("Respuesta").
			Value(answer)
		if t.Phase == domain.PhaseAwaitingPassword {
			input = input.EchoMode(huh.EchoModePassword)
		}
		field = input
	}
	return huh.NewForm(huh.NewGroup(field)).WithTheme(theme)
}

// chatSession is one terminal conversation against a TimesheetService.
type chatSession struct {
	svc service.TimesheetService
	ask prompter
	out io.Writer
	// wait runs action while showing title to the user.
	wait func(title string, action func()) error
}

func newChatCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Fill in today's timesheet from the terminal",
		Long: "Runs the timesheet conversation locally. Questions with fixed answers\n" +
			"are shown as a list; everything else is typed. Without a terminal the\n" +
			"forms fall back to plain line-by-line prompts.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Use-case events would interleave with the forms.
			app.Logger = newLogger(cmd.ErrOrStderr(), levelFor(app.Config.Debug, slog.LevelWarn))
			svcs, err := app.Services()
			if err != nil {
				return err
			}

			interactive := app.interactive()
			s := &chatSession{
				svc: svcs.Timesheet,
				ask: huhPrompter{
					in:         cmd.InOrStdin(),
					out:        cmd.OutOrStdout(),
					accessible: !interactive,
					theme:      chatTheme(),
				},
				out:  cmd.OutOrStdout(),
				wait: directWait,
			}
			if interactive {
				s.wait = spinnerWait
			}
			return s.run(cmd.Context(), "")
		},
	}

	fs := cmd.Flags()
	config.BindFlags(fs)
	for _, name := range []string{config.FlagAddr, config.FlagAllowedOrigins, config.FlagJanitorInterval, config.FlagSessionTTL} {
		_ = fs.MarkHidden(name)
	}
	return cmd
}

func (s *chatSession) run(ctx context.Context, sessionID string) error {
	start, err := s.svc.Start(ctx, contract.NewStartRequest(sessionID))
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	fmt.Fprintln(s.out, formatter.FormatSessionHeader(start.SessionID, start.Resumed))

	turn := start.Turn
	for !turn.Finished() {
		fmt.Fprintln(s.out, formatter.FormatTurn(turn))

		answer, err := s.ask.Ask(turn)
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(s.out, formatter.Dim("Sesión cancelada."))
			_, _ = s.svc.Reset(ctx, start.SessionID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading answer: %w", err)
		}

		req := contract.MessageRequest{SessionID: start.SessionID, Message: answer}
		var resp *contract.MessageResponse
		send := func() { resp, err = s.svc.SendMessage(ctx, req) }
		if turn.Phase == domain.PhaseAwaitingTotalHours {
			if waitErr := s.wait("Generando el parte...", send); waitErr != nil {
				return waitErr
			}
		} else {
			send()
		}
		if err != nil {
			return fmt.Errorf("sending answer: %w", err)
		}
		turn = resp.Turn
	}

	if turn.Phase == domain.PhaseError {
		fmt.Fprintln(s.out, formatter.FormatFailure(turn))
		return errReportFailed
	}
	fmt.Fprintln(s.out, formatter.FormatCompletion(turn, s.artifactPath(ctx, start.SessionID)))
	return nil
}

// artifactPath returns where the report was written, or "" if it cannot be
// opened.
func (s *chatSession) artifactPath(ctx context.Context, sessionID string) string {
	a, err := s.svc.FetchArtifact(ctx, sessionID)
	if err != nil {
		return ""
	}
	defer a.Content.Close()
	if named, ok := a.Content.(interface{ Name() string }); ok {
		return named.Name()
	}
	return a.FileName
}

func directWait(_ string, action func()) error {
	action()
	return nil
}

func spinnerWait(title string, action func()) error {
	return spinner.New().Title(title).Action(action).Run()
}
