// package main is the entry point of the vulns-cli client binary.
package main

import "github.com/CodeClarityCE/vulnerabilities/cmd"

func main() {
	cmd.Execute()
}
