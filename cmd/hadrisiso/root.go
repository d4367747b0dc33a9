package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "hadrisiso",
	Short: "Build and inspect ISO 9660 / Joliet / El Torito images",
	Long: `hadrisiso is a command-line front-end over the iso9660 package: it plans and
writes bootable ISO 9660 images with optional Joliet and Rock Ridge extensions, and
inspects images it or any other tool produced.

Commands:
  build    Plan and write an image from a source directory
  inspect  Print an image's volume descriptor set and boot catalog
  ls       List a directory inside an image`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML/TOML) pre-populating build options")
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "hadrisiso: reading config %q: %v\n", cfgFile, err)
		}
	}
}

func main() {
	Execute()
}
