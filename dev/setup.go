package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	devenv "visaworkflow-backend/dev/env"
	configlibsql "visaworkflow-backend/lib/configutil/libsql"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/recordstore"
	"visaworkflow-backend/lib/recordstore/db"
	"visaworkflow-backend/lib/visa"
	"visaworkflow-backend/services/workflow"
)

func CreateRecordsDB() error {
	path, err := devenv.ResolvePath("<dev_state>/records.db")
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	database, err := configlibsql.Struct{File: path}.OpenDB(db.Schema)
	if err != nil {
		return err
	}
	defer database.Close()

	// seed the store so that `visa-agent history` has something to show
	refresher := workflow.Refresher{
		Directory: posts.DefaultDirectory(),
		Upstream:  workflow.MockSource(),
		Store:     recordstore.NewStore(database),
		Source:    workflow.SourceStatic,
	}
	_, err = refresher.Refresh(context.Background(), "Andorra", "IR-1")
	return err
}

// WriteSampleRecords exports the built-in records in the format read by the
// file source, as a starting point for local data files.
func WriteSampleRecords() error {
	path, err := devenv.ResolvePath("<dev_state>/records.json5")
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("sample records already written to", path)
		return nil
	}

	record, err := workflow.MockSource().Lookup(context.Background(), "barcelona", "IR-1")
	if err != nil {
		return err
	}
	serialized, err := json.MarshalIndent(map[string]map[string]visa.Record{
		"barcelona": {"IR-1": record},
	}, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println("writing sample records to", path)
	return os.WriteFile(path, serialized, 0666)
}

func PrintConfigLocations() {
	slog.Info("run the agent against the sample records with `go run ./cmd/visa-agent --data '<dev_state>/records.json5' -c Andorra -v IR-1 -r Steps`. the live embassy scraper test reads its target from dev/.state/embassy_live.json5 and is skipped when it is missing.")
}
