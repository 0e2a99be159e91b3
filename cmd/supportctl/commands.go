package main

import (
	"strings"

	"github.com/spf13/cobra"

	"support-agent/internal/bootstrap"
	"support-agent/internal/intent"
	"support-agent/internal/usecase"
)

type classifyOutput struct {
	Intent   string `json:"intent"`
	Response string `json:"response"`
}

type sendOutput struct {
	MessageID string `json:"messageId"`
	Intent    string `json:"intent"`
	Response  string `json:"response"`
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <message>",
		Short: "Classify a message without recording it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tax, err := bootstrap.ResolveTaxonomy(cmd.Context(), bootstrap.Parse(lookup))
			if err != nil {
				return err
			}
			classifier, err := intent.NewClassifier(tax)
			if err != nil {
				return err
			}
			res := classifier.Classify(strings.Join(args, " "))
			return printJSON(cmd.OutOrStdout(), classifyOutput{Intent: res.Intent, Response: res.Response})
		},
	}
}

func newSendCmd() *cobra.Command {
	var sessionID, callerID string
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Submit a message to a session and record the exchange",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			in := usecase.SubmitInput{Message: strings.Join(args, " "), SessionID: sessionID}
			if callerID != "" {
				in.CallerID = &callerID
			}
			out, err := app.Support.SubmitMessage(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sendOutput{MessageID: out.MessageID, Intent: out.Intent, Response: out.Response})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session identifier")
	cmd.Flags().StringVar(&callerID, "caller", "", "authenticated caller identifier (anonymous when empty)")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <sessionID>",
		Short: "Print a session transcript, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			exchanges, err := app.Support.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), exchanges)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum exchanges to print (0 uses HISTORY_LIMIT)")
	return cmd
}

func newSessionsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List session summaries, most recently active first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			sessions, err := app.Support.Sessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sessions)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum sessions to list (0 uses MAX_SESSIONS)")
	return cmd
}

func newAnalyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Print the analytics snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			snap, err := app.Support.Analytics(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
}

func newTaxonomyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "taxonomy",
		Short: "Print the effective intent taxonomy as YAML",
		Long: `Print the taxonomy the engine would load, after applying TAXONOMY_PARAM
and TAXONOMY_FILE. The output can be edited and stored back as a parameter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tax, err := bootstrap.ResolveTaxonomy(cmd.Context(), bootstrap.Parse(lookup))
			if err != nil {
				return err
			}
			data, err := intent.Marshal(tax)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
