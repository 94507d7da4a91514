package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/stepchain/report"
)

// ErrNoProblem is returned when neither arguments nor stdin carry a problem.
var ErrNoProblem = errors.New("no problem given")

func newSolveCmd(ro *rootOptions) *cobra.Command {
	var noSummary bool

	cmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "Run the agent pipeline for one problem",
		Long: "Run the agent pipeline for one problem. Without arguments the " +
			"problem is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			problem, err := readProblem(args, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}

			chain, err := ro.newChain()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			res := chain.Solve(ctx, problem)

			summary := ""
			if !noSummary {
				summary, _ = chain.Summarize(ctx, res.Final)
			}

			return report.Write(cmd.OutOrStdout(), report.Report{
				Summary:  summary,
				Result:   res,
				Language: chain.CodeLanguage(),
			})
		},
	}
	cmd.Flags().BoolVar(&noSummary, "no-summary", false, "Skip the plain-language summary")
	return cmd
}

// readProblem joins args, or prompts on out and reads one line from in.
func readProblem(args []string, in io.Reader, out io.Writer) (string, error) {
	if len(args) > 0 {
		if p := strings.TrimSpace(strings.Join(args, " ")); p != "" {
			return p, nil
		}
		return "", ErrNoProblem
	}

	fmt.Fprint(out, "Please enter the problem you want to solve: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if p := strings.TrimSpace(line); p != "" {
		return p, nil
	}
	return "", ErrNoProblem
}
