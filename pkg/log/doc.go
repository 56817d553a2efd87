/*
Package log provides structured logging for the grid coordinator using
zerolog.

The package wraps a single process-wide zerolog.Logger, configured once
at startup via Init, and exposes child-logger constructors that attach
the domain identifiers every other package logs against: component
name, job id, node id, work unit id. Call sites never interpolate these
into the message string; they're always structured fields, so logs
stay greppable and parseable regardless of which component emitted
them.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("scheduler")
	logger.Info().Str("strategy", "fcfs").Msg("scheduler strategy changed")

	jobLogger := log.WithJobID(job.JobID)
	jobLogger.Warn().Msg("job killed by client")
	nodeLogger := log.WithNodeID(node.NodeID)
	nodeLogger.Error().Err(err).Msg("dispatch failed")

Console output (the default, and what a human operator watches during
development) renders as:

	2026-07-31T10:30:00Z INF scheduler strategy changed component=scheduler strategy=fcfs

JSON output (what a production deployment ships to a log aggregator)
renders the same event as:

	{"level":"info","component":"scheduler","strategy":"fcfs","time":"2026-07-31T10:30:00Z","message":"scheduler strategy changed"}

# Conventions

  - Never use the standard library's "log" package or fmt.Println for
    operational logging; every line goes through this package so level
    filtering and structured fields apply uniformly.
  - Prefer a child logger over repeating Str("job_id", ...) at every
    call site; WithJobID/WithNodeID/WithWorkUnitID exist precisely so
    packages don't each reinvent field names for the same identifiers.
  - Errors are attached with .Err(err), never formatted into the
    message string, so they survive JSON serialization as a distinct
    field.
*/
package log
