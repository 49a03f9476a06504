// v0
// cmd/plantpal/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "plantpal",
		Short: "Plant companion: mood, care hints and progression from soil and climate sensors",
		Long: `plantpal samples a sensor every measurement interval, scores each configured
plant against its tolerance profile, awards experience and publishes the
result over MQTT and Kafka.

Configuration is layered: built-in defaults, then plantpal.properties (or the
file named by PLANTPAL_PROPERTIES_PATH), then PLANTPAL_* environment variables.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newInspectCmd(), newLevelCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
