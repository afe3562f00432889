// Package ai defines the shared, backend-agnostic types and interfaces used
// across all provider adapter implementations (OpenRouter, Gemini, fal.ai).
// Each adapter's conversion layer is responsible for mapping these types to
// its own wire format, keeping the rest of the codebase decoupled from
// provider-specific details.
//
// The central interface is [Adapter]: one network call in, one [Outcome]
// out. Outcome is a closed variant set (success, rate-limited, invalid
// input, or unavailable) so callers can rely on every provider-side failure
// having already been classified at the adapter boundary.
package ai
