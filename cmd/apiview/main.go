// Package main is the entry point for apiview.
package main

func main() {
	Execute()
}
