// Package tor provides the proxied fetch transport.
//
// Client turns any SOCKS5 proxy (a system Tor daemon, an SSH tunnel, a
// corporate proxy) into an *http.Client for the crawler. EmbeddedTor
// starts a private Tor daemon through tornago and hands its SOCKS port to
// a Client, which is what makes .onion seeds crawlable without setup.
package tor
