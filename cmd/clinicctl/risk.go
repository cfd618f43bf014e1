package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sailcare/clinic-api/internal/logger"
	"github.com/sailcare/clinic-api/internal/risk"
)

var riskFlagFile string

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Risk questionnaire tools",
}

var riskScoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a YAML file of answers (question key: answer) without touching the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := readAnswers(riskFlagFile)
		if err != nil {
			return err
		}
		if err := risk.Validate(answers); err != nil {
			// Unknown answers still score as zero; flag them so typos are visible.
			logger.L().Warnw("answer file has unrecognised entries", "file", riskFlagFile, "error", err)
		}

		printResult(cmd.OutOrStdout(), risk.Score(answers))
		return nil
	},
}

func init() {
	riskScoreCmd.Flags().StringVar(&riskFlagFile, "file", "", "answers file (default stdin)")
	riskCmd.AddCommand(riskScoreCmd)
}

func readAnswers(path string) (risk.Answers, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}

	answers := risk.Answers{}
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}
	return answers, nil
}

func printResult(out io.Writer, res risk.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "QUESTION\tRESPONSE\tPOINTS")
	for _, row := range res.Breakdown {
		fmt.Fprintf(w, "%s\t%s\t%g\n", row.Label, row.Response, row.Points)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nTotal: %g (%s)\n", res.Total, res.Level)
	if len(res.Recommendations) > 0 {
		fmt.Fprintln(out, "Recommendations:")
		fmt.Fprintln(out, "  - "+strings.Join(res.Recommendations, "\n  - "))
	}
}
