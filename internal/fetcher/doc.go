// Package fetcher retrieves pages for analysis under a politeness budget.
//
// # Pacing
//
// Every request passes through a Pacer before it starts. A Pacer is a
// token bucket of size one refilled once per delay, so request starts
// through the same Pacer are never closer together than the delay, even
// when many workers share it. Two policies are available:
//
//   - PaceBetween (default): the first request starts at once.
//   - PaceLeading: every request waits, the first one included.
//
// # Errors
//
// Fetch returns a *FetchError for every failure: transport errors,
// non-2xx responses (wrapping ErrUnexpectedStatus) and cancellation.
// Callers decide whether a failure is fatal; a batch keeps going.
//
// # Usage
//
//	f, err := fetcher.New(
//		fetcher.WithDelay(time.Second, fetcher.PaceBetween),
//		fetcher.WithTimeout(30*time.Second),
//	)
//	page, err := f.Fetch(ctx, "https://example.com/")
//
// # Proxies
//
// WithProxy accepts socks5://host:port (dialed through
// golang.org/x/net/proxy) or http(s)://host:port.
package fetcher
