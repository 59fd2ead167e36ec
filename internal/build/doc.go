// Package build is the single execution path for compiles and uploads.
//
// The CLI commands (compile, upload, run, watch) are thin wrappers over
// Service: it turns a loaded configuration into a session, drives the
// project builder and the deployer, and records each run in the event
// store, the metrics recorder and the notification publisher.
package build
