package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pptx-to-slides/internal/config"
	"github.com/thywilljoshua/pptx-to-slides/internal/convert"
)

func extractCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	var imagesDir string

	cmd := &cobra.Command{
		Use:   "extract <file.pptx>",
		Short: "Extract slide records as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, *cfgFile)
			if err != nil {
				return err
			}
			log, conv, err := wire(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			log.Info("extracting", zap.String("file", args[0]))
			recs, err := convert.RunFile(cmd.Context(), args[0], conv)
			if err != nil {
				return err
			}
			if imagesDir != "" {
				paths, err := convert.WriteImages(imagesDir, recs)
				if err != nil {
					return fmt.Errorf("write images: %w", err)
				}
				log.Info("images written", zap.String("dir", imagesDir), zap.Int("count", len(paths)))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		},
	}

	f := cmd.Flags()
	f.StringVar(&imagesDir, "images-dir", "", "also write each slide image into this directory")
	f.Float64("duration", 10, "seconds per slide")
	f.Bool("renumber", false, "number slides 1..n in output order")
	f.String("remote", "", "conversion service endpoint tried before local parsing")
	f.Bool("libreoffice", false, "try soffice + pdftoppm before local parsing")
	f.Bool("goppt", false, "try in-process GoPPT rendering before local parsing")
	f.Bool("gemini", false, "recover text from image-only slides with Gemini")

	for key, name := range map[string]string{
		"slides.duration":     "duration",
		"slides.renumber":     "renumber",
		"remote.endpoint":     "remote",
		"libreoffice.enabled": "libreoffice",
		"goppt.enabled":       "goppt",
		"gemini.enabled":      "gemini",
	} {
		_ = v.BindPFlag(key, f.Lookup(name))
	}
	return cmd
}
