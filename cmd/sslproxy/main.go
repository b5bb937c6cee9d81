// Command sslproxy is a TLS-terminating reverse proxy.
package main

import "github.com/hajba/sslproxy/cmd/sslproxy/cmd"

func main() {
	cmd.Execute()
}
