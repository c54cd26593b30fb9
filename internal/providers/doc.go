// Package providers implements the Generator interface for text generation
// services.
//
// The only provider is Ollama, reached through its native /api/generate
// endpoint. Each Generate call issues exactly one HTTP request and blocks
// until the completion is done; there are no retries. Failures are reported as
// [*NetworkError] when the service cannot be reached or times out, and as
// [*ServiceError] when it answers with a failure status or a body that is not
// a completion.
//
// HTTP clients are struct fields so that tests can point a provider at a
// local httptest server.
package providers
