package cmd

import (
	"fmt"

	"os"

	"github.com/gnoverse/canopy/internal"
	tt "github.com/gnoverse/canopy/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// initCmd: canopy init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new normalizer configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		if err := initConfigurationFile(cfgFile); err != nil {
			logger.Error("Error initializing config file", zap.Error(err))
			return
		}
		path := cfgFile
		if path == "" {
			path = ".canopy.yaml"
		}
		fmt.Printf("Configuration file created/updated: %s\n", path)
	},
}

func initConfigurationFile(configurationPath string) error {
	if configurationPath == "" {
		configurationPath = ".canopy.yaml"
	}

	passes := make(map[string]tt.ConfigPass)
	for _, name := range internal.PassNames() {
		passes[name] = tt.ConfigPass{Severity: tt.SeverityWarning}
	}
	config := tt.Config{
		Name:    "canopy",
		Version: "1.0.0",
		Passes:  passes,
		Order:   internal.DefaultOrder(),
	}
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	f, err := os.Create(configurationPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(d)
	if err != nil {
		return err
	}

	return nil
}
