// Package resilience retries operations that fail for transient reasons.
//
// Spawning hundreds of short-lived filter processes can briefly exhaust
// process slots or descriptors. Retry with Transient rides those out:
//
//	p, err := resilience.Retry(ctx, cfg, func() (*process.Process, error) {
//	    return process.Spawn(ctx, cmd)
//	}, resilience.RetryIf(resilience.Transient))
package resilience
