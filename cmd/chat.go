package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/larkin/modelgate/dispatch"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start a conversational session routed through the gateway. Context
carries over between messages and survives model switches.

In-session commands:
  /models            list available models
  /model <id>        switch the active model
  /clear             clear conversation history
  /regen             regenerate the last answer
  /broadcast <text>  (admin) prepare a broadcast to all allowed users
  /reset <user>      (admin) reset another user's session

Type 'exit' or 'quit' to end the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}
		defer application.closeSink() //nolint:errcheck // process exit path

		if userID == "" {
			return fmt.Errorf("a user id is required (--user or MODELGATE_USER_ID)")
		}

		cyan := color.New(color.FgCyan, color.Bold)
		dim := color.New(color.FgHiBlack)
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)

		fmt.Fprintln(os.Stderr)
		cyan.Fprintln(os.Stderr, "  modelgate chat")
		dim.Fprintf(os.Stderr, "  Active model: %s. Type /models to see alternatives, 'exit' to quit.\n\n",
			application.sessions.GetOrCreate(userID).ActiveModel)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			green.Fprint(os.Stderr, "  you → ")
			if !scanner.Scan() {
				break
			}

			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			if input == "exit" || input == "quit" {
				dim.Fprintf(os.Stderr, "\n  Bye.\n\n")
				break
			}

			if input == "/models" {
				printModels(application, userID)
				continue
			}

			event := parseInput(input)
			event.UserID = userID

			sp := spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(os.Stderr))
			sp.Suffix = "  waiting for " + application.sessions.ActiveModel(userID)
			sp.Color("cyan") //nolint:errcheck // cosmetic
			sp.Start()
			reply := application.dispatcher.Handle(cmd.Context(), event)
			sp.Stop()

			if !reply.OK {
				red.Fprintf(os.Stderr, "  ✗ %s\n\n", reply.ErrorMessage)
				continue
			}

			if len(reply.Recipients) > 0 {
				dim.Fprintf(os.Stderr, "  broadcast prepared for %d users\n\n", len(reply.Recipients))
				continue
			}

			cyan.Fprint(os.Stderr, "  gate → ")
			if reply.Binary {
				fmt.Fprintf(os.Stderr, "%s\n\n", reply.Content)
			} else {
				fmt.Fprintf(os.Stderr, "%s\n\n", renderReply(reply.Content))
			}
		}

		return scanner.Err()
	},
}

// parseInput maps a REPL line to a dispatcher event. Lines starting with
// "/" are commands; everything else is a chat message.
func parseInput(input string) dispatch.Event {
	if !strings.HasPrefix(input, "/") {
		return dispatch.Event{Text: input}
	}

	command, rest, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
	rest = strings.TrimSpace(rest)
	switch command {
	case "model":
		return dispatch.Event{Command: dispatch.CommandSwitchModel, Text: rest}
	case "clear":
		return dispatch.Event{Command: dispatch.CommandClear}
	case "regen":
		return dispatch.Event{Command: dispatch.CommandRegenerate}
	case "broadcast":
		return dispatch.Event{Command: dispatch.CommandBroadcast, Text: rest}
	case "reset":
		return dispatch.Event{Command: dispatch.CommandReset, Text: rest}
	default:
		// Unknown slash commands fall through to the dispatcher, which
		// answers with its own error message.
		return dispatch.Event{Command: dispatch.Command(command), Text: rest}
	}
}
