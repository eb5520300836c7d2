// Package main hosts the bnptool CLI entrypoint and command graph.
//
// create, convert and install hand their arguments to internal/workflow,
// which drives the external mod engine; hash and decode work offline on
// dependency identifiers. clean, doctor and config cover scratch
// maintenance, environment diagnostics and configuration scaffolding.
//
// Configuration and logging are resolved lazily through commandContext so
// commands annotated with skipConfigLoad run without a config file.
package main
