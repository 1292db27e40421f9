package commands

import (
	"io"
	"strings"
	"time"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/recordstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newHistoryCmd(global *globalOptions, stdout io.Writer) *cobra.Command {
	var country, visaType string
	var limit int

	cmd := &cobra.Command{
		Use:   "history [-c <country> -v <visa_type>]",
		Short: "List stored snapshots, or every stored post and visa type when no country is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := global.loadConfig()
			if err != nil {
				return err
			}
			database, err := global.openDatabase(config)
			if err != nil {
				return err
			}
			defer database.Close()
			store := recordstore.NewStore(database)

			if country == "" {
				targets, err := store.Targets(cmd.Context())
				if err != nil {
					return err
				}
				t := newTable(stdout)
				t.AppendHeader(table.Row{"Post", "Visa type", "Snapshots", "Last fetched"})
				for _, target := range targets {
					t.AppendRow(table.Row{
						target.Post,
						target.VisaType,
						target.Snapshots,
						target.LastFetchedAt.UTC().Format(time.RFC3339),
					})
				}
				t.Render()
				return nil
			}

			post, known := config.Directory().Lookup(country)
			postId := post.ID
			if !known {
				// allow addressing a post directly
				postId = posts.ID(country)
			}
			snapshots, err := store.History(cmd.Context(), postId, visaType, limit)
			if err != nil {
				return err
			}

			t := newTable(stdout)
			t.AppendHeader(table.Row{"Snapshot", "Fetched", "Checked", "Source", "Hash", "Categories"})
			for _, s := range snapshots {
				categories := make([]string, 0, s.Record.Len())
				for _, c := range s.Record.Categories() {
					categories = append(categories, c.String())
				}
				t.AppendRow(table.Row{
					s.ID,
					s.FetchedAt.UTC().Format(time.RFC3339),
					s.CheckedAt.UTC().Format(time.RFC3339),
					s.Source,
					s.Hash[:12],
					strings.Join(categories, ", "),
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&country, "country", "c", "", "Country of residence, or a post id.")
	cmd.Flags().StringVarP(&visaType, "visa_type", "v", "", "The visa classification.")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of snapshots to list, 0 lists all.")
	cmd.MarkFlagsRequiredTogether("country", "visa_type")
	return cmd
}
