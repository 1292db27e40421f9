package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"visaworkflow-backend/lib/configutil"
	configlibsql "visaworkflow-backend/lib/configutil/libsql"
	"visaworkflow-backend/lib/recordstore/db"
	"visaworkflow-backend/lib/restyutil"
	"visaworkflow-backend/lib/scrapers/embassy"
	"visaworkflow-backend/lib/serviceutil"
	"visaworkflow-backend/lib/telemetry"
	"visaworkflow-backend/lib/visa"
	"visaworkflow-backend/services/workflow"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"
)

const defaultDatabase = "<dev_state>/records.db"

type globalOptions struct {
	source      string
	dataFile    string
	configPath  string
	verbose     bool
	accessToken string
}

type queryOptions struct {
	country     string
	visaType    string
	returnTypes []string
	remote      string
	format      string
}

// loadConfig reads the config file when one was given and applies the
// command line overrides on top of it.
func (g *globalOptions) loadConfig() (workflow.Config, error) {
	var config workflow.Config
	if g.configPath != "" {
		var err error
		config, err = configutil.ReadConfig[workflow.Config](g.configPath)
		if err != nil {
			return workflow.Config{}, fmt.Errorf("read config %s: %w", g.configPath, err)
		}
	}
	if g.dataFile != "" {
		config.Source.DataFile = g.dataFile
		if g.source == "" {
			config.Source.Kind = workflow.SourceFile
		}
	}
	if g.source != "" {
		config.Source.Kind = g.source
	}
	return config, config.Validate()
}

func (g *globalOptions) openDatabase(config workflow.Config) (*sql.DB, error) {
	database := config.Database
	if database == nil {
		database = &configlibsql.Struct{File: defaultDatabase}
	}
	return database.OpenDB(db.Schema)
}

func (g *globalOptions) setup() error {
	telemetry.InitSlog(g.verbose)
	if !g.verbose {
		return nil
	}
	out, err := restyutil.NewFilesystemOutput(".dev/resty/embassy")
	if err != nil {
		return err
	}
	embassy.SetRestyInstrumentOutput(out)
	return nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	global := &globalOptions{}
	query := &queryOptions{}

	root := &cobra.Command{
		Use:   "visa-agent -c <country> -v <visa_type> -r <category> [<category>...]",
		Short: "visa-agent gathers the U.S. visa application requirements for a country of residence.",
		Long: fmt.Sprintf(
			"visa-agent identifies the processing post of a country of residence and returns the\n"+
				"requested categories of its visa requirements as JSON.\n\n"+
				"Categories: %s",
			strings.Join(visa.CategoryNames(), ", "),
		),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return global.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), global, query, args, stdout)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	persistent := root.PersistentFlags()
	persistent.StringVar(&global.source, "source", "", "Data source to resolve records from: static, file or embassy.")
	persistent.StringVar(&global.dataFile, "data", "", "JSON5 records file used by the file source.")
	persistent.StringVar(&global.configPath, "config", "", "JSON5 config file, <name>.local.json5 overrides are merged in.")
	persistent.BoolVar(&global.verbose, "verbose", false, "Log debug output to stderr.")
	persistent.StringVar(&global.accessToken, "access-token", "", "Access token of the remote visa-server.")

	flags := root.Flags()
	flags.StringVarP(&query.country, "country", "c", "", "The country of residence for the visa application.")
	flags.StringVarP(&query.visaType, "visa_type", "v", "", "The specific U.S. visa classification (e.g. IR-1).")
	flags.StringSliceVarP(
		&query.returnTypes, "return_types", "r", nil,
		fmt.Sprintf("Categories to return, repeated or comma separated. Choose from: %s.", strings.Join(visa.CategoryNames(), ", ")),
	)
	flags.StringVar(&query.remote, "remote", "", "Base url of a visa-server to query instead of resolving locally.")
	flags.StringVar(&query.format, "format", "json", "Output format: json or table.")
	root.MarkFlagRequired("country")
	root.MarkFlagRequired("visa_type")

	root.AddCommand(
		newPostsCmd(global, stdout),
		newScrapeCmd(global, stdout),
		newHistoryCmd(global, stdout),
	)
	return root
}

func runQuery(ctx context.Context, global *globalOptions, query *queryOptions, args []string, stdout io.Writer) error {
	names := append(append([]string{}, query.returnTypes...), args...)
	if len(names) == 0 {
		return fmt.Errorf("at least one return type is required (choose from %s)", strings.Join(visa.CategoryNames(), ", "))
	}
	categories, err := visa.ParseCategories(names)
	if err != nil {
		return err
	}
	if query.format != "json" && query.format != "table" {
		return fmt.Errorf("unknown format %q (choose from json, table)", query.format)
	}

	q := workflow.Query{
		Country:    query.country,
		VisaType:   query.visaType,
		Categories: categories,
	}

	var result visa.Result
	if query.remote != "" {
		client := workflow.NewClient(
			http.DefaultClient,
			query.remote,
			connect.WithInterceptors(serviceutil.ProvideAccessTokenInterceptor(global.accessToken)),
		)
		result, err = client.Execute(ctx, q)
	} else {
		result, err = executeLocal(ctx, global, q)
	}
	if err != nil {
		return err
	}

	if query.format == "table" {
		renderResult(stdout, result)
		return nil
	}
	serialized, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(serialized))
	return nil
}

func executeLocal(ctx context.Context, global *globalOptions, q workflow.Query) (visa.Result, error) {
	config, err := global.loadConfig()
	if err != nil {
		return visa.Result{}, err
	}

	var database *sql.DB
	if config.Source.CacheTTL != "" {
		database, err = global.openDatabase(config)
		if err != nil {
			return visa.Result{}, err
		}
		defer database.Close()
	}

	source, err := config.OpenDataSource(database)
	if err != nil {
		return visa.Result{}, err
	}
	agent := workflow.NewAgent(workflow.NewResolver(config.Directory(), source))
	return agent.Execute(ctx, q)
}

// Execute runs the command line and returns the process exit status.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if len(args) == 0 {
		root.SetOut(stderr)
		root.Help()
		return 1
	}

	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}
