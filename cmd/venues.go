package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "List the configured venues and what they support",
	RunE:  runVenues,
}

func init() {
	rootCmd.AddCommand(venuesCmd)
}

type venueOutput struct {
	ID           string   `json:"id"`
	Capabilities []string `json:"capabilities"`
}

func runVenues(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	var out []venueOutput
	for _, v := range a.registry.All() {
		out = append(out, venueOutput{ID: string(v.ID), Capabilities: v.Capabilities()})
	}

	if jsonOutput {
		return printJSON(out)
	}

	banner("VENUES", 60)
	fmt.Printf("\n  Network: %s (chain %s)\n\n", a.cfg.NetworkID(), a.cfg.NetworkID().ChainID())
	for _, v := range out {
		fmt.Printf("  %-16s %s\n", color.CyanString(v.ID), strings.Join(v.Capabilities, ", "))
	}
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
	return nil
}
