package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"promptq/pkg/types"
)

func newAskCmd(opts *Options) *cobra.Command {
	var id string
	var raw bool
	cmd := &cobra.Command{
		Use:     "ask <prompt...>",
		Short:   "Queue a prompt on a running daemon and print the reply",
		Example: "  promptqd ask why is the sky blue\n  promptqd ask --raw --id msg-1 hello",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			var final types.PromptEvent
			err := newClient(opts.Server).prompt(cmd.Context(), types.PromptRequest{ID: id, Prompt: prompt}, func(ev types.PromptEvent) {
				if raw {
					printRaw(out, ev)
				} else {
					printEvent(out, ev)
				}
				final = ev
			})
			if err != nil {
				return err
			}
			switch final.Type {
			case types.EventSuccess, types.EventRateLimited:
				return nil
			case "":
				return fmt.Errorf("stream ended without an outcome")
			default:
				return fmt.Errorf("request %s ended with %s", final.ID, final.Type)
			}
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Request id (default: generated)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print events as NDJSON")
	return cmd
}

func printEvent(w io.Writer, ev types.PromptEvent) {
	switch ev.Type {
	case types.EventQueued:
		fmt.Fprintf(w, "Queued at position %d\n", ev.Position)
	case types.EventStarted:
		ahead := 0
		if ev.Ahead != nil {
			ahead = *ev.Ahead
		}
		fmt.Fprintf(w, "Thinking... %d requests ahead\n", ahead)
	case types.EventSuccess:
		for _, s := range ev.Segments {
			fmt.Fprintln(w, s)
		}
	default:
		fmt.Fprintln(w, ev.Text)
	}
}

func printRaw(w io.Writer, ev types.PromptEvent) { _ = json.NewEncoder(w).Encode(ev) }
