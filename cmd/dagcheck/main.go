// Command dagcheck validates pipeline graphs, either as an HTTP service or
// over files from the command line.
package main

func main() {
	Execute()
}
