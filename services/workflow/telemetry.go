package workflow

import (
	"visaworkflow-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("visaworkflow.services.workflow")
var meter = telemetry.Meter("visaworkflow.services.workflow")
