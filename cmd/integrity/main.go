package integrity

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ollie314/Akumuli/storage"
)

const (
	usage   = "integrity"
	short   = "Evaluate page headers of a storage"
	long    = "This command maps every volume of a storage and checks header sanity without writing to it"
	example = "akumuli integrity --file /var/lib/aku/db.akumuli"

	fileDesc = "set path of the storage metadata file"
)

var (
	metadataPath string

	// Cmd is the integrity command.
	Cmd = &cobra.Command{
		Use:     usage,
		Short:   short,
		Long:    long,
		Aliases: []string{"ic", "integritycheck"},
		Example: example,
		RunE:    executeIntegrity,
	}
)

func init() {
	Cmd.Flags().StringVarP(&metadataPath, "file", "f", "", fileDesc)
	Cmd.MarkFlagRequired("file")
}

// executeIntegrity implements the integrity command.
func executeIntegrity(*cobra.Command, []string) error {
	report, err := storage.CheckIntegrity(metadataPath)
	if err != nil {
		return err
	}
	for _, line := range report {
		fmt.Println(line)
	}
	return nil
}
