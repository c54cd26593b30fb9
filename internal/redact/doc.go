// Package redact withholds secrets from text before it is placed in a review
// prompt.
//
// Detection is heuristic: regular expressions for API key assignments, JWTs,
// private key headers, AWS keys, bearer tokens, passwords in connection
// strings and a handful of vendor token formats. Matches are replaced with
// [REDACTED].
//
// A [Policy] can also withhold whole files by path, for example "**/.env".
package redact
