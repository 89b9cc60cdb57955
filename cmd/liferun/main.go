// Command liferun steps Life patterns with the parallel engine.
package main

func main() {
	execute()
}
