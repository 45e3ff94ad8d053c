// Package main provides the entry point for the pageaudit CLI.
//
// pageaudit audits a web page for accessibility, information architecture
// and content quality, and reports a score and progress per category.
//
// Usage:
//
//	pageaudit audit https://example.com
//	pageaudit worker --redis-url redis://localhost:6379
//	pageaudit serve --listen :8080
//
// See --help for all available options.
package main

func main() {
	Execute()
}
