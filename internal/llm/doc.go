// Package llm provides language model clients for categorization and chat.
// Gemini, OpenAI and Anthropic providers sit behind a Gateway that bounds every
// call with a timeout and a shared rate limit.
package llm
