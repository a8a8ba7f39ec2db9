// Package redact detects and masks secrets in source lines.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, database connection strings, and provider-specific tokens
// (Anthropic, OpenAI, GitHub, Slack). The same patterns back the
// hardcoded-secrets review step and the masking applied to report output.
//
// Files whose paths match configured glob patterns are skipped entirely by
// the runner rather than scanned line by line.
package redact
