// Command gateway serves streaming text generation and structured subtask
// generation over HTTP, backed by the Gemini API.
//
// Usage:
//
//	# Start with configuration from the environment and .env
//	gateway serve
//
//	# Start with a YAML configuration file
//	gateway serve --config /etc/gateway/config.yaml
//
//	# Show version information
//	gateway version
package main

func main() {
	Execute()
}
