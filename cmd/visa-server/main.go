package main

import (
	"database/sql"
	"flag"
	"log/slog"
	"net/http"
	"visaworkflow-backend/lib/configutil"
	"visaworkflow-backend/lib/notify"
	"visaworkflow-backend/lib/recordstore"
	"visaworkflow-backend/lib/recordstore/db"
	"visaworkflow-backend/lib/serviceutil"
	"visaworkflow-backend/services/workflow"

	"connectrpc.com/connect"
)

type Config struct {
	Port int `json:"port"`
	// AccessToken guards the rpc endpoint, one is generated and logged
	// when it is left empty.
	AccessToken string          `json:"access_token"`
	Workflow    workflow.Config `json:"workflow"`
}

func (c Config) Validate() error {
	return c.Workflow.Validate()
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the server config.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	var database *sql.DB
	if cfg.Workflow.Database != nil {
		database, err = cfg.Workflow.Database.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("open database", err)
		}
		defer database.Close()
	}

	source, err := cfg.Workflow.OpenDataSource(database)
	if err != nil {
		serviceutil.Fatal("open data source", err)
	}
	directory := cfg.Workflow.Directory()
	agent := workflow.NewAgent(workflow.NewResolver(directory, source))

	accessToken := cfg.AccessToken
	if accessToken == "" {
		accessToken, err = serviceutil.GenerateAccessToken()
		if err != nil {
			serviceutil.Fatal("generate access token", err)
		}
		slog.Info("generated access token", "token", accessToken)
	}

	otelIntercept, err := serviceutil.NewConnectOtelInterceptor()
	if err != nil {
		serviceutil.Fatal("create otel interceptor", err)
	}

	mux := http.NewServeMux()
	mux.Handle(workflow.NewHandler(
		workflow.NewService(agent),
		connect.WithInterceptors(
			otelIntercept,
			serviceutil.VerifyAccessTokenInterceptor(accessToken),
		),
	))

	interval, err := cfg.Workflow.Refresh.IntervalDuration()
	if err != nil {
		serviceutil.Fatal("parse refresh interval", err)
	}
	if interval > 0 && len(cfg.Workflow.Refresh.Targets) > 0 {
		upstream, err := cfg.Workflow.OpenUpstream()
		if err != nil {
			serviceutil.Fatal("open upstream source", err)
		}
		refresher := workflow.Refresher{
			Directory: directory,
			Upstream:  upstream,
			Store:     recordstore.NewStore(database),
			Notifier:  notify.NewMailer(cfg.Workflow.Notify),
			Source:    cfg.Workflow.SourceKind(),
		}
		slog.Info(
			"starting refresh daemon",
			"interval", interval,
			"targets", len(cfg.Workflow.Refresh.Targets),
		)
		go refresher.RunDaemon(ctx, interval, cfg.Workflow.Refresh.Targets)
	}

	err = serviceutil.StartHttpServer(ctx, cfg.Port, mux)
	if err != nil {
		serviceutil.Fatal("serve", err)
	}
}
