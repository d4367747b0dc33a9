package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hxyulin/hadris/iso9660"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <image.iso>",
	Short: "Print an image's volume descriptor set and boot catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	rd, err := iso9660.OpenReader(f)
	if err != nil {
		return fmt.Errorf("reading volume descriptor set: %w", err)
	}

	root, err := rd.RootDirectory()
	if err != nil {
		return fmt.Errorf("reading root directory: %w", err)
	}
	fmt.Printf("root directory: LBA %d, %d bytes\n", root.LBA, root.Length)

	cat, err := rd.BootCatalog()
	if err != nil {
		fmt.Println("no El Torito boot catalog present")
		return nil
	}
	fmt.Printf("boot catalog: default entry LBA %d, %d sector-count, %d additional entries\n",
		cat.Default.ImageLBA, cat.Default.SectorCount, len(cat.Entries))
	return nil
}
