// survey administers the urban streetscape perception survey from the
// terminal. Each respondent rates a group of street images on five Likert
// scales; progress survives restarts and the completed session is sent to
// the collection endpoint.
package main

import (
	"os"

	"github.com/corey/survey/cmd/survey/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
