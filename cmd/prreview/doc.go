// Prreview is a CLI that reviews the difference between two git branches with
// a locally hosted LLM.
//
// Each changed file is sent to an Ollama server together with its diff and,
// by default, its full content on the source branch. The reviews are printed
// as a single JSON object mapping file paths to review text, in diff order.
//
// Usage:
//
//	prreview feature/login main                  # review feature/login against main
//	prreview --merge-base feature/login main     # review only what feature/login added
//	prreview --format markdown feature/login main > review.md
//	prreview config init                         # write a default config file
//	prreview models doctor                       # check the Ollama server and model
package main
