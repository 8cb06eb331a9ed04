// Package create - because packages cannot be named 'init' in go.
package create

import (
	"code.cloudfoundry.org/bytefmt"
	"github.com/spf13/cobra"

	"github.com/ollie314/Akumuli/storage"
	"github.com/ollie314/Akumuli/utils/log"
)

const (
	usage   = "init"
	short   = "Creates a new storage on disk"
	long    = "This command creates the page files and the metadata file for a new storage"
	example = "akumuli init --name db --metadata-dir /var/lib/aku --volumes-dir /var/lib/aku --volumes 4"

	nameDesc       = "set base name used for page files and the metadata file"
	metaDirDesc    = "set directory the metadata file is written to"
	volumesDirDesc = "set directory the page files are written to"
	numVolumesDesc = "set number of page files in the rotation"
	pageSizeDesc   = "set size of each page file, human units (e.g. 256M)"
)

var (
	name        string
	metadataDir string
	volumesDir  string
	numVolumes  int
	pageSize    string

	// Cmd is the init command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		SuggestFor: []string{"create", "new"},
		Example:    example,
		RunE:       executeInit,
	}
)

func init() {
	Cmd.Flags().StringVar(&name, "name", "db", nameDesc)
	Cmd.Flags().StringVar(&metadataDir, "metadata-dir", ".", metaDirDesc)
	Cmd.Flags().StringVar(&volumesDir, "volumes-dir", ".", volumesDirDesc)
	Cmd.Flags().IntVar(&numVolumes, "volumes", 4, numVolumesDesc)
	Cmd.Flags().StringVar(&pageSize, "page-size", "256M", pageSizeDesc)
}

// executeInit implements the init command.
func executeInit(*cobra.Command, []string) error {
	size, err := bytefmt.ToBytes(pageSize)
	if err != nil {
		return err
	}
	metaPath, err := storage.CreateStorage(name, metadataDir, volumesDir, numVolumes, size)
	if err != nil {
		return err
	}
	log.Info("created storage %s with %d volumes", metaPath, numVolumes)
	return nil
}
