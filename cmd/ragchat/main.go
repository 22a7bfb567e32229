// Command ragchat serves and queries a retrieval-augmented chat over a local LLM server.
package main

func main() {
	Execute()
}
