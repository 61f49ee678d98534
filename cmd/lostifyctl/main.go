// Command lostifyctl administers a Lostify database: migrations, admin
// seeding, match inspection, CSV export and watching the live feed.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
