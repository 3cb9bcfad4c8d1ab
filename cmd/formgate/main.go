// Package main is the entry point for formgate.
package main

func main() {
	Execute()
}
