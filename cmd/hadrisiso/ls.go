package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hxyulin/hadris/iso9660"
)

var lsCmd = &cobra.Command{
	Use:   "ls <image.iso> <path>",
	Short: "List a directory inside an image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLs(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}

func runLs(imagePath, dirPath string) error {
	f, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("opening %q: %w", imagePath, err)
	}
	defer f.Close()

	rd, err := iso9660.OpenReader(f)
	if err != nil {
		return fmt.Errorf("reading volume descriptor set: %w", err)
	}

	entries, err := rd.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("listing %q: %w", dirPath, err)
	}

	for _, e := range entries {
		kind := "file"
		if e.IsDir {
			kind = "dir"
		}
		fmt.Printf("%-5s %10d  %s\n", kind, e.Length, e.Name)
	}
	return nil
}
