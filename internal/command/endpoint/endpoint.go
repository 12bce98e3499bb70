package endpoint

import (
	"path/filepath"

	"github.com/cirruslabs/vmpower/internal/vmpowerhome"
	"github.com/spf13/cobra"
)

var dataDirPath string

func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "endpoint",
		Short: "Initialize and run a management endpoint on the local machine",
	}

	command.AddCommand(newInitCommand(), newRunCommand())

	command.PersistentFlags().StringVar(&dataDirPath, "data-dir", "",
		"path to the data directory (defaults to \"endpoint\" in $VMPOWER_HOME or ~/.vmpower)")

	return command
}

func resolveDataDirPath() (string, error) {
	if dataDirPath != "" {
		return dataDirPath, nil
	}

	vmpowerHome, err := vmpowerhome.Path()
	if err != nil {
		return "", err
	}

	return filepath.Join(vmpowerHome, "endpoint"), nil
}
