// Command meanshift tracks a region selected with the mouse, using hue
// histogram back-projection and mean-shift.
//
// Drag with the left mouse button to select a region; 'x' exits.
package main

import (
	"os"

	"github.com/ayusman/framelab/internal/app"
	"github.com/ayusman/framelab/internal/cli"
)

func main() {
	cmd := cli.Command{
		Name:          app.DemoTracking,
		Description:   "Mean-shift object tracking of a mouse-selected region",
		DefaultCamera: 1,
		Tracking:      true,
		Run:           (*app.App).RunTracking,
	}
	os.Exit(cmd.Main(os.Args))
}
