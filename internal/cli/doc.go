// Package cli wires together the Cobra command tree for the prreview binary.
//
// The root command takes a source and a target branch, loads configuration,
// diffs the branches, reviews each changed file and writes the result. The
// config, models and version subcommands manage the config file and query the
// Ollama service. Errors are printed once as "Error: ..." on stderr and mapped
// to an exit code by kind.
package cli
