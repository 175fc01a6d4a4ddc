// Package limiter throttles calls to a [longrun.Remote] with a token bucket.
package limiter
