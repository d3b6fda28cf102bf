// authzctl inspects the authorization core: role catalog, compiled policies, and per-user
// scope and permission checks against the database.
package main

import (
	"os"

	"sdr-juridico/backend/cmd/authzctl/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
