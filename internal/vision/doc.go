// Package vision is a small client for OpenAI-compatible chat-completion
// endpoints that accept image input.
//
// # Request shape
//
// A Request carries a system prompt and an ordered list of user Parts. Parts
// interleave text and images, which is how few-shot scorebook examples are
// presented ahead of the image being read. Images are sent by URL or, when
// only bytes are available, as a base64 data URL.
//
// When a Schema is set the endpoint is asked for json_schema output;
// otherwise json_object.
//
// # Retry Behaviour
//
// Transport failures are retried: HTTP 408/429/5xx, network timeouts and
// empty completions, with exponential backoff (base 1s, max 10s, 3 attempts
// by default). Retry-After is honoured. Context cancellation stops retries.
// A completion with content is never retried here; deciding whether the
// content is usable belongs to the caller.
package vision
