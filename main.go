// package main provides the entry point for the pdvd-trust command line client,
// which resolves package trust status, vulnerabilities and dependency graphs
// from a trust catalog.
package main

import "github.com/ortelius/pdvd-trust/cmd"

func main() {
	cmd.Execute()
}
