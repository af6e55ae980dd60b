// dashctl is the admin CLI for the dashboard.
package main

import "github.com/Yashtiwari893/11za-ai-Dashboard-sub001/cmd/dashctl/cmd"

func main() {
	cmd.Execute()
}
