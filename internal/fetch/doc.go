// Package fetch captures pages as snapshots.
//
// A Fetcher downloads a page over HTTP, or reads it from a local file, and
// turns it into a model.Snapshot: the serialized markup, one element record
// per element carrying an inline style, and the bytes of every referenced
// image it could retrieve. Requests can be routed through a SOCKS5 proxy.
//
// HTTPProber checks link destinations for the links check.
package fetch
