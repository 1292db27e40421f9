package embassy

import (
	"visaworkflow-backend/lib/restyutil"
	"visaworkflow-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("visaworkflow.lib.scrapers.embassy")
var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput must be called before NewClient for the dumps
// to apply to the client.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
