/*
Package otelbridge exports reported units as OpenTelemetry spans.

The bridge is a tracer.Reporter. For each ended unit it starts and ends an
SDK span with the unit's start time and duration, its trace ID and span ID,
and a remote parent pointing at the unit's parent, so the exported tree
matches the agent's own. HTTP details from the transaction context become
span attributes and a captured error is recorded on the span.

Export uses OTLP over HTTP when Config.EnableExport is set:

	bridge, err := otelbridge.NewBridge(otelbridge.Config{
	    ServiceName:  "checkout",
	    AppEnv:       "production",
	    EnableExport: true,
	})
	if err != nil {
	    return err
	}
	defer bridge.Shutdown(ctx)

	t := tracer.NewClient(cfg, tracer.WithReporter(bridge))
*/
package otelbridge
