// availd is the availability policy engine CLI.
package main

import "github.com/availd-io/availd/cmd/availd/cmd"

func main() {
	cmd.Execute()
}
