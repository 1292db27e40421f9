package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"
	"visaworkflow-backend/lib/notify"
	"visaworkflow-backend/lib/recordstore"
	"visaworkflow-backend/services/workflow"

	"github.com/spf13/cobra"
)

type refreshOutput struct {
	Post        string `json:"post"`
	VisaType    string `json:"visa_type"`
	SnapshotID  string `json:"snapshot_id"`
	IsDuplicate bool   `json:"is_duplicate"`
	IsFirst     bool   `json:"is_first"`
	Report      any    `json:"report"`
}

func newScrapeCmd(global *globalOptions, stdout io.Writer) *cobra.Command {
	var country, visaType string

	cmd := &cobra.Command{
		Use:   "scrape -c <country> -v <visa_type>",
		Short: "Refresh a record from its source into the record store and print what changed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := global.loadConfig()
			if err != nil {
				return err
			}
			upstream, err := config.OpenUpstream()
			if err != nil {
				return err
			}
			database, err := global.openDatabase(config)
			if err != nil {
				return err
			}
			defer database.Close()

			refresher := workflow.Refresher{
				Directory: config.Directory(),
				Upstream:  upstream,
				Store:     recordstore.NewStore(database),
				Notifier:  notify.NewMailer(config.Notify),
				Source:    config.SourceKind(),
			}

			start := time.Now()
			res, err := refresher.Refresh(cmd.Context(), country, visaType)
			if err != nil {
				return err
			}
			slog.Debug("refresh time", "seconds", time.Since(start).Seconds())

			serialized, err := json.MarshalIndent(refreshOutput{
				Post:        string(res.Post),
				VisaType:    res.VisaType,
				SnapshotID:  res.SnapshotID,
				IsDuplicate: res.IsDuplicate,
				IsFirst:     res.IsFirst,
				Report:      res.Report,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, string(serialized))
			return nil
		},
	}

	cmd.Flags().StringVarP(&country, "country", "c", "", "The country of residence to refresh.")
	cmd.Flags().StringVarP(&visaType, "visa_type", "v", "", "The visa classification to refresh.")
	cmd.MarkFlagRequired("country")
	cmd.MarkFlagRequired("visa_type")
	return cmd
}
