package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"support-agent/internal/bootstrap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "supportctl",
	Short: "Operate the support engine from a terminal",
	Long: `supportctl classifies messages against the intent taxonomy and reads
transcripts, session summaries and analytics straight from the transcript table.
Every flag can also be set through the environment variable named in its help.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("table", "", "DynamoDB transcript table (or set STATE_TABLE)")
	flags.String("endpoint", "", "DynamoDB endpoint override, e.g. DynamoDB Local (or set DYNAMODB_ENDPOINT)")
	flags.String("taxonomy-file", "", "YAML taxonomy file (or set TAXONOMY_FILE)")
	flags.String("taxonomy-param", "", "SSM parameter holding the YAML taxonomy (or set TAXONOMY_PARAM)")
	flags.String("timezone", "", "IANA zone for analytics day buckets (or set ANALYTICS_TIMEZONE)")

	// Keys match the environment variable names so AutomaticEnv and flags share one lookup.
	for key, flag := range map[string]string{
		"STATE_TABLE":        "table",
		"DYNAMODB_ENDPOINT":  "endpoint",
		"TAXONOMY_FILE":      "taxonomy-file",
		"TAXONOMY_PARAM":     "taxonomy-param",
		"ANALYTICS_TIMEZONE": "timezone",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}

	rootCmd.AddCommand(
		newClassifyCmd(),
		newSendCmd(),
		newHistoryCmd(),
		newSessionsCmd(),
		newAnalyticsCmd(),
		newTaxonomyCmd(),
	)
}

func initConfig() {
	viper.AutomaticEnv()
}

func lookup(key string) string {
	return viper.GetString(key)
}

// loadApp wires the full engine, including the transcript store.
func loadApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := bootstrap.Load(lookup)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cmd.Context(), cfg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
