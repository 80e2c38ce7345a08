// Command yardsim runs and audits a container yard scheduler.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/yardsim/cli"
)

func main() {
	atexit.Exit(cli.Execute())
}
