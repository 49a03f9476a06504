// v0
// cmd/plantpal/level.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

type levelView struct {
	XP     uint16 `json:"xp" yaml:"xp"`
	Level  uint16 `json:"level" yaml:"level"`
	NextAt uint16 `json:"nextLevelAtXp" yaml:"nextLevelAtXp"`
}

func newLevelCmd() *cobra.Command {
	var (
		xp     uint16
		output string
	)
	cmd := &cobra.Command{
		Use:   "level",
		Short: "Show the level reached with a given amount of experience",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := plant.Level(xp)
			return render(cmd.OutOrStdout(), output, levelView{XP: xp, Level: level, NextAt: plant.NextLevelXP(level)})
		},
	}
	cmd.Flags().Uint16Var(&xp, "xp", 0, "Experience points")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format (json, yaml)")
	return cmd
}
