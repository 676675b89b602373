package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/container-make/sizer/pkg/preset"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "List the preset image table",
	RunE: func(cmd *cobra.Command, args []string) error {
		images, err := preset.Load()
		if err != nil {
			return err
		}

		var category string
		for _, img := range images {
			if img.Category != category {
				category = img.Category
				fmt.Printf("\n%s\n", category)
			}
			command := img.Command
			if command == "" {
				command = "(keep-alive fallback)"
			}
			fmt.Printf("  %-20s %-28s %s\n", img.Name, img.Description, command)
		}
		fmt.Printf("\nOverride or extend this table in %s\n", preset.ConfigPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(imagesCmd)
}
