// Command lifeconv converts between pattern, snapshot and image formats.
package main

func main() {
	execute()
}
