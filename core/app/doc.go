// Package app assembles the underwriting actor with its collaborators:
// offer fetcher, credit loader, optional Postgres similarity store, optional
// Redis and NATS event sinks, the snapshot store and Prometheus metrics.
//
// # Basic Usage
//
//	a, err := app.New(app.Config{
//	    CSVPath: "assets/data/credit_file.csv",
//	    NatsURL: "nats://localhost:4222",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//
//	h := a.Handle() // a clone, close it when done
//	defer h.Close()
//	id, err := underwriting.NextID(ctx, h)
//
// Every optional collaborator is skipped when its address is empty, so a
// zero Config runs entirely in memory.
package app
