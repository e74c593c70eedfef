// Package main hosts the swna CLI entrypoint and command graph.
//
// process and watch open a session and run inbox documents through the
// pipeline. classify previews a document without side effects. ledger and
// audit inspect what earlier runs did, and config, deps and test-notify help
// set a machine up.
package main
