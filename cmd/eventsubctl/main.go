// Command eventsubctl inspects and cleans up the EventSub subscriptions of
// the configured broadcaster account.
package main

import "os"

func main() {
	if err := newRootCmd(openTwitch).Execute(); err != nil {
		os.Exit(1)
	}
}
