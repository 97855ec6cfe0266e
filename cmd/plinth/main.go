// Package main provides the plinth CLI for building Solidity projects and
// deploying them as dependency-ordered modules.
package main

func main() {
	Execute()
}
