package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	var mode string
	var output string
	var withResult bool
	buildCmd := &cobra.Command{
		Use:   "build <profile-id>",
		Short: "Compile one profile into a sing-box configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid profile id %q", args[0])
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := openApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if timeout := a.cfg.Packages.LoadTimeout; a.packages != nil && timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			result, err := a.builds.Build(ctx, id, mode)
			if err != nil {
				return err
			}

			payload := []byte(result.Config)
			if withResult {
				payload, err = json.MarshalIndent(map[string]any{
					"result":  result,
					"traffic": result.TrafficTags(),
				}, "", "  ")
				if err != nil {
					return err
				}
				payload = append(payload, '\n')
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(payload)
				return err
			}
			if err := os.WriteFile(output, payload, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			helpers := 0
			for _, chain := range result.ExternalIndex {
				helpers += len(chain.Hops)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d alerts, %d helper processes)\n", output, len(result.Alerts), helpers)
			return nil
		},
	}
	buildCmd.Flags().StringVarP(&mode, "mode", "m", "normal", "build mode: normal, test or export")
	buildCmd.Flags().StringVarP(&output, "output", "o", "", "write the document to a file instead of stdout")
	buildCmd.Flags().BoolVar(&withResult, "result", false, "emit the full build result (helper index, tag map, alerts)")
	rootCmd.AddCommand(buildCmd)
}
