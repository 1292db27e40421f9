package commands

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newPostsCmd(global *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "posts",
		Short: "List the countries of residence with a known processing post.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := global.loadConfig()
			if err != nil {
				return err
			}
			directory := config.Directory()

			t := newTable(stdout)
			t.AppendHeader(table.Row{"Country", "Post", "Name", "City"})
			for _, country := range directory.Countries() {
				post, _ := directory.Lookup(country)
				t.AppendRow(table.Row{country, post.ID, post.Name, post.City})
			}
			t.Render()
			return nil
		},
	}
}
