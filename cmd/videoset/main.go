// Command videoset packages local video/metadata pairs into sharded
// datasets and pushes them to a blob store, and pulls them back.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
