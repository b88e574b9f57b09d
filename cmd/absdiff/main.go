// Command absdiff displays the contrast-enhanced difference between
// consecutive frames of a video file or camera.
//
// Keys: 'x' exits, 'g' toggles greyscale.
package main

import (
	"os"

	"github.com/ayusman/framelab/internal/app"
	"github.com/ayusman/framelab/internal/cli"
)

func main() {
	cmd := cli.Command{
		Name:          app.DemoDifference,
		Description:   "Image differencing and contrast via multiplication",
		DefaultCamera: 0,
		Run:           (*app.App).RunDifference,
	}
	os.Exit(cmd.Main(os.Args))
}
