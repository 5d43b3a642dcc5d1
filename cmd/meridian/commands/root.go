package commands

import (
	"github.com/meridiannetwork/meridian/src/config"
	"github.com/spf13/cobra"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for Meridian
var RootCmd = &cobra.Command{
	Use:              "meridian",
	Short:            "meridian node",
	TraverseChildren: true,
}
