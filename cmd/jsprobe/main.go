// Package main provides the entry point for the jsprobe CLI.
//
// jsprobe fetches web pages politely and reports the JSON data and
// script endpoints embedded in them.
//
// Usage:
//
//	jsprobe analyze <url>
//	jsprobe analyze --list <file>
//
// See --help for all available options.
package main

// main is the entry point for jsprobe.
func main() {
	Execute()
}
