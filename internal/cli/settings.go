package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"promptq/pkg/types"
)

func newProvidersCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers of a running daemon; * marks the current one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var pr types.ProvidersResponse
			if err := newClient(opts.Server).getJSON(cmd.Context(), http.MethodGet, "/providers", nil, &pr); err != nil {
				return err
			}
			for _, p := range pr.Providers {
				mark := " "
				if p == pr.Current {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, p)
			}
			return nil
		},
	}
}

func newModelsCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models offered by the current provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var mr types.ModelsResponse
			if err := newClient(opts.Server).getJSON(cmd.Context(), http.MethodGet, "/models", nil, &mr); err != nil {
				return err
			}
			for _, m := range mr.Models {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

// newSettingsCmd shows the settings, or changes them when any flag is given.
func newSettingsCmd(opts *Options) *cobra.Command {
	var provider, model, systemPrompt string
	cmd := &cobra.Command{
		Use:     "settings",
		Short:   "Show or change provider, model and system prompt",
		Example: "  promptqd settings\n  promptqd settings --provider deepseek\n  promptqd settings --model qwen3 --system-prompt 'Answer briefly'",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var u types.SettingsUpdate
			f := cmd.Flags()
			if f.Changed("provider") {
				u.Provider = &provider
			}
			if f.Changed("model") {
				u.Model = &model
			}
			if f.Changed("system-prompt") {
				u.SystemPrompt = &systemPrompt
			}
			c := newClient(opts.Server)
			var s types.SettingsResponse
			var err error
			if u.Provider == nil && u.Model == nil && u.SystemPrompt == nil {
				err = c.getJSON(cmd.Context(), http.MethodGet, "/settings", nil, &s)
			} else {
				err = c.getJSON(cmd.Context(), http.MethodPut, "/settings", u, &s)
			}
			if err != nil {
				return err
			}
			m := s.Model
			if m == "" {
				m = "(provider default)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Provider: %s\nModel: %s\nSystem prompt: %s\n", s.Provider, m, s.SystemPrompt)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Switch provider")
	cmd.Flags().StringVar(&model, "model", "", "Set model; empty restores the provider default")
	cmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "Set system prompt")
	return cmd
}
