// Command readiness scores a single website's LLM readiness from the terminal.
package main

func main() {
	Execute()
}
