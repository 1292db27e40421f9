package main

import (
	"os"
	"visaworkflow-backend/cmd/visa-agent/commands"
	"visaworkflow-backend/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	os.Exit(commands.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr))
}
