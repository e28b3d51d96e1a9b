package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/arnolievens/mpimg/runtime"
	"github.com/arnolievens/mpimg/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version      string `json:"version" yaml:"version"`
	Commit       string `json:"commit" yaml:"commit"`
	StateVersion int    `json:"state_version" yaml:"state_version"`
}

// VersionCommand returns the version command. It never contacts MPD.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  []cli.Flag{FormatFlag},
		Action: versionAction(commit),
	}
}

func versionAction(commit string) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := newRenderer(c.String("format"), c.App.Writer)
		if err != nil {
			return cli.Exit(err.Error(), runtime.ExitCodeConfig)
		}
		return r.Render(VersionResponse{
			Version:      types.Version,
			Commit:       commit,
			StateVersion: types.StateVersion,
		})
	}
}
