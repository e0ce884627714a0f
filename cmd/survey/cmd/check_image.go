package cmd

import (
	"fmt"

	"github.com/corey/survey/internal/adapters/remote"
	"github.com/corey/survey/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkImageCmd = &cobra.Command{
	Use:   "check-image [id]",
	Short: "Check that an image can be loaded",
	Long:  "Resolves the image URL (the current image when no id is given) and checks that it is retrievable. A missing image shows a placeholder; rating continues either way.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheckImage,
}

func runCheckImage(cmd *cobra.Command, args []string) error {
	id := ""
	if len(args) == 1 {
		id = args[0]
	} else {
		err := withApp(func(a *app.App) error {
			it, ok := a.Controller.Current()
			if !ok {
				return fmt.Errorf("no current image — pass an id or start the survey")
			}
			id = it.ImageID
			return nil
		})
		if err != nil {
			return err
		}
	}

	u := cfg.AssetLocator().URL(id)
	if err := remote.ProbeAsset(cmd.Context(), u, cfg.GetEndpointTimeout()); err != nil {
		logger.Warn("image unavailable", zap.String("image_id", id), zap.String("url", u), zap.Error(err))
		fmt.Printf("%s[ image #%s unavailable ]%s\n", colorGray, id, colorReset)
		return nil
	}
	fmt.Printf("%s✓%s #%s %s\n", colorGreen, colorReset, id, u)
	return nil
}
