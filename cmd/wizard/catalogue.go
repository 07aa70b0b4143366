package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/client"
	"github.com/sports-festival/festival-registration/registration"
	"github.com/spf13/cobra"
)

var (
	sportsLimit  int
	sportsCursor string
)

var sportsCmd = &cobra.Command{
	Use:   "sports [id]",
	Short: "List the sports on offer, or show one of them",
	Long: `List the sports on offer one page at a time. Pass the cursor printed under
a page to --cursor to get the next one. With an id, show that sport only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		opts := optionsFromFlags()
		c := client.New(opts.apiURL, opts.httpClient, opts.logger)

		if len(args) == 1 {
			return runSport(ctx, c, cmd.OutOrStdout(), args[0])
		}
		return runSports(ctx, c, cmd.OutOrStdout(), sportsLimit, sportsCursor)
	},
}

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Show the step drafts the server holds for the session email",
	Args:  cobra.NoArgs,
	RunE:  withSession(runDrafts),
}

func init() {
	sportsCmd.Flags().IntVar(&sportsLimit, "limit", 0, "Sports per page, the server default when 0")
	sportsCmd.Flags().StringVar(&sportsCursor, "cursor", "", "Cursor of the page to fetch")
}

func runSports(ctx context.Context, c *client.Client, out io.Writer, limit int, cursor string) error {
	var cur *string
	if cursor != "" {
		cur = &cursor
	}

	page, err := c.ListSports(ctx, limit, cur)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tAGE GROUPS")
	for _, s := range page.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Category, strings.Join(s.AgeGroups, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if page.HasNextPage && page.Cursor != nil {
		fmt.Fprintf(out, "next page: --cursor %s\n", *page.Cursor)
	}
	return nil
}

func runSport(ctx context.Context, c *client.Client, out io.Writer, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid sport id %q: %w", rawID, err)
	}

	sport, err := c.GetSport(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%s)\n", sport.Name, sport.Category)
	fmt.Fprintf(out, "  age groups:  %s\n", strings.Join(sport.AgeGroups, ", "))
	if len(sport.Disciplines) > 0 {
		fmt.Fprintf(out, "  disciplines: %s\n", strings.Join(sport.Disciplines, ", "))
	}
	fmt.Fprintf(out, "  registered:  %d students, %d institutions\n", sport.NumStudents, sport.NumInstitutions)
	return nil
}

func runDrafts(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
	email := s.orchestrator.State().Email
	if email == "" {
		return registration.NewEmailNotSetError()
	}

	drafts, err := s.client.GetStepDrafts(ctx, s.orchestrator.Flow().Name, email)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(drafts, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return err
}
