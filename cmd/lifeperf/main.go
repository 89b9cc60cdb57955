// Command lifeperf compares the reference steppers with the parallel engine.
package main

func main() {
	execute()
}
