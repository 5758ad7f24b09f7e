// Package gephi streams graph updates to a Gephi graph streaming server.
//
// Every update is a single JSON event posted to
// {workspace}?operation=updateGraph. Nodes are keyed by URL and carry
// the URL as label plus a depth attribute; edges are directed and keyed
// "source-target", so re-sending an update is idempotent on the server.
package gephi
