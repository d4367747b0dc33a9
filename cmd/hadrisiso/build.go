package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hxyulin/hadris/iso9660"
)

var (
	buildInputDir    string
	buildOutputPath  string
	buildJoliet      bool
	buildRockRidge   bool
	buildStrict      bool
	buildCompat      bool
	buildVolumeID    string
	buildPublisherID string
	buildBootImage   string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Plan and write an image from a source directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild()
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildInputDir, "input", "i", "", "source directory to image (required)")
	buildCmd.Flags().StringVarP(&buildOutputPath, "output", "o", "", "output image path (required)")
	buildCmd.Flags().BoolVar(&buildJoliet, "joliet", true, "enable the Joliet supplementary volume descriptor")
	buildCmd.Flags().BoolVar(&buildRockRidge, "rock-ridge", false, "enable Rock Ridge POSIX extensions")
	buildCmd.Flags().BoolVar(&buildStrict, "strict", false, "reject any non-conformant input instead of adapting it")
	buildCmd.Flags().BoolVar(&buildCompat, "compat", false, "emit MBR/GPT hybrid system-area headers")
	buildCmd.Flags().StringVar(&buildVolumeID, "volume-id", "", "volume identifier (overrides --config)")
	buildCmd.Flags().StringVar(&buildPublisherID, "publisher", "", "publisher identifier (overrides --config)")
	buildCmd.Flags().StringVar(&buildBootImage, "boot-image", "", "path (within --input) of a no-emulation El Torito boot image")

	_ = buildCmd.MarkFlagRequired("input")
	_ = buildCmd.MarkFlagRequired("output")
}

func runBuild() error {
	input, err := iso9660.ScanDirectory(buildInputDir)
	if err != nil {
		return fmt.Errorf("scanning %q: %w", buildInputDir, err)
	}

	opts := iso9660.DefaultFormatOptions()
	opts.Files = input
	opts.EnableJoliet = buildJoliet
	opts.EnableRockRidge = buildRockRidge

	opts.VolumeID = firstNonEmpty(buildVolumeID, viper.GetString("volume_id"), opts.VolumeID)
	opts.PublisherID = firstNonEmpty(buildPublisherID, viper.GetString("publisher_id"), opts.PublisherID)

	switch {
	case buildStrict:
		opts.Strictness = iso9660.StrictnessStrict
	case buildCompat:
		opts.Strictness = iso9660.StrictnessCompatible
		opts.Partitions = iso9660.PartitionMBR | iso9660.PartitionGPT
	default:
		opts.Strictness = iso9660.StrictnessDefault
	}

	bootImage := firstNonEmpty(buildBootImage, viper.GetString("boot_image"))
	if bootImage != "" {
		opts.BootEntries = &iso9660.BootOptions{
			Default: iso9660.BootEntryOptions{BootImagePath: bootImage, Emulation: iso9660.EmulationNoEmulation, BootInfoTable: true},
		}
	}

	b, err := iso9660.NewBuilder(opts)
	if err != nil {
		return fmt.Errorf("configuring builder: %w", err)
	}

	plan, err := b.BuildToFile(buildOutputPath)
	if err != nil {
		return fmt.Errorf("building %q: %w", buildOutputPath, err)
	}

	fmt.Printf("wrote %s: %d sectors (%d bytes)\n", buildOutputPath, plan.TotalSectors(), uint64(plan.TotalSectors())*iso9660.SectorSize)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
