package main

import (
	"fmt"

	"coursegen-go/logcolors"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate course content through the guarded API clients",
	}

	var model string
	textCmd := &cobra.Command{
		Use:   "text <prompt>",
		Short: "Generate text for a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			text, err := a.textGen.Generate(cmd.Context(), args[0], model)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
	textCmd.Flags().StringVar(&model, "model", "", "model identifier to pin")

	var workers int
	imagesCmd := &cobra.Command{
		Use:   "images <prompt>...",
		Short: "Generate one image per prompt on a worker pool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			results := a.imageGen.GenerateBatch(cmd.Context(), args, workers)

			failed := 0
			out := make([]map[string]any, 0, len(results))
			for _, r := range results {
				item := map[string]any{
					"job_id": r.JobID,
					"prompt": args[r.Index],
				}
				if r.Err != nil {
					item["error"] = r.Err.Error()
					failed++
				} else {
					item["image_url"] = r.Value
				}
				out = append(out, item)
			}

			if failed > 0 {
				log.Warnf("%s %d of %d image generations failed", logcolors.LogBatch, failed, len(results))
			}
			return printJSON(out)
		},
	}
	imagesCmd.Flags().IntVar(&workers, "workers", 4, "concurrent generation workers")

	generateCmd.AddCommand(textCmd, imagesCmd)
	return generateCmd
}
