package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Rhymond/go-money"
	"github.com/sports-festival/festival-registration/client"
	"github.com/sports-festival/festival-registration/fees"
	"github.com/sports-festival/festival-registration/registration"
	"github.com/sports-festival/festival-registration/validation"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current step and everything filled in so far",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
		return printState(cmd.OutOrStdout(), s.orchestrator.Flow(), s.orchestrator.State())
	}),
}

var emailCmd = &cobra.Command{
	Use:   "email <address>",
	Short: "Set the email that keys the saved progress",
	Long: `Set the email that keys the saved progress. When the server already has
progress for this email it replaces the local progress.`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(runEmail),
}

var stepCmd = &cobra.Command{
	Use:   "step <payload.json|->",
	Short: "Submit the current step",
	Long: `Submit the current step. The payload is a {"kind", "data"} JSON document
read from a file, or from stdin when the argument is -.`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(runStep),
}

var backCmd = &cobra.Command{
	Use:   "back",
	Short: "Go back one step, keeping what was filled in",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
		return printState(cmd.OutOrStdout(), s.orchestrator.Flow(), s.orchestrator.Back())
	}),
}

var startOverCmd = &cobra.Command{
	Use:   "start-over",
	Short: "Throw away all progress, locally and on the server",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
		return printState(cmd.OutOrStdout(), s.orchestrator.Flow(), s.orchestrator.StartOver(ctx))
	}),
}

var emailVerified bool

var (
	quoteKind     string
	quoteCount    int
	quoteFallback int64
	quoteCurrency string
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a number of sports, disciplines or parents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		opts := optionsFromFlags()
		c := client.New(opts.apiURL, opts.httpClient, opts.logger)

		return runQuote(ctx, c, cmd.OutOrStdout(), quoteKind, quoteCount, money.New(quoteFallback, quoteCurrency))
	},
}

func init() {
	emailCmd.Flags().BoolVar(&emailVerified, "verified", false, "Mark the email as verified once the code sent to it has been confirmed")

	quoteCmd.Flags().StringVar(&quoteKind, "kind", string(fees.SPORT), "Item kind (sport, discipline or parent)")
	quoteCmd.Flags().IntVar(&quoteCount, "count", 1, "Number of items")
	quoteCmd.Flags().Int64Var(&quoteFallback, "fallback", 100000, "Flat rate per item, in minor units, used when pricing is unavailable")
	quoteCmd.Flags().StringVar(&quoteCurrency, "currency", "KES", "Currency of the fallback rate")
}

type sessionRunFunc func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error

func withSession(run sessionRunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		s, err := openSession(ctx, optionsFromFlags())
		if err != nil {
			return err
		}
		defer s.Close()

		return run(ctx, s, cmd, args)
	}
}

func runEmail(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
	if err := s.orchestrator.SetEmail(args[0]); err != nil {
		return describeError(cmd.ErrOrStderr(), err)
	}
	if emailVerified {
		s.orchestrator.MarkEmailVerified()
	}

	if s.orchestrator.Reconcile(ctx) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Resumed the progress saved on the server.")
	}

	return printState(cmd.OutOrStdout(), s.orchestrator.Flow(), s.orchestrator.State())
}

func runStep(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
	raw, err := readPayload(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	payload, err := registration.UnmarshalPayload(raw)
	if err != nil {
		return describeError(cmd.ErrOrStderr(), err)
	}

	outcome, err := s.orchestrator.SubmitStep(ctx, payload)
	for _, w := range outcome.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
	if err != nil {
		return describeError(cmd.ErrOrStderr(), err)
	}

	if outcome.Finished {
		fee := money.New(outcome.Result.TotalFee, outcome.Result.Currency)
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s, total fee %s.\n", outcome.Result.ID, fee.Display())
		return nil
	}

	return printState(cmd.OutOrStdout(), s.orchestrator.Flow(), outcome.State)
}

func runQuote(ctx context.Context, c *client.Client, out io.Writer, kind string, count int, fallback *money.Money) error {
	itemKind, err := fees.ParseItemKind(kind)
	if err != nil {
		return err
	}

	quote := c.QuoteFee(ctx, itemKind, count, fallback)
	fmt.Fprintf(out, "%d x %s: %s\n", count, itemKind, quote.Total.Display())
	if quote.Estimated {
		fmt.Fprintln(out, quote.Warning)
	}

	return nil
}

func readPayload(stdin io.Reader, arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(arg)
}

// describeError lists invalid fields one per line before returning err.
func describeError(w io.Writer, err error) error {
	var errs validation.Errors
	if errors.As(err, &errs) {
		for _, fe := range errs {
			fmt.Fprintf(w, "  %s\n", fe)
		}
	}
	return err
}

type stateView struct {
	Flow  string             `json:"flow"`
	Next  string             `json:"next,omitempty"`
	State registration.State `json:"state"`
}

func printState(w io.Writer, flow registration.Flow, state registration.State) error {
	view := stateView{Flow: flow.Name, State: state}
	if rule, ok := flow.Rule(state.CurrentStep); ok {
		view.Next = string(rule.Accepts)
	}

	raw, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(raw))
	return err
}
