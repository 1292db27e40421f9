package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"
	"visaworkflow-backend/lib/restyutil"
	"visaworkflow-backend/lib/scrapers/embassy"
	"visaworkflow-backend/lib/serviceutil"
	"visaworkflow-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "visa-server")
	if errors.Is(err, os.ErrNotExist) {
		slog.WarnContext(ctx, "no telemetry.json5 found, telemetry is disabled")
	} else if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx, 15*time.Second)

	if !verbose {
		return
	}

	out, err := restyutil.NewFilesystemOutput(".dev/resty/embassy")
	if err != nil {
		serviceutil.Fatal("create resty output", err)
	}
	embassy.SetRestyInstrumentOutput(out)
}
