package main

import (
	"errors"

	"github.com/jpalmerr/longrun/remote/docintel"
	"github.com/spf13/cobra"
)

// buildModelCmd trains a custom model.
var buildModelCmd = &cobra.Command{
	Use:   "build-model",
	Short: "Build a custom Document Intelligence model",
	Long: `Build a custom model from labeled training documents in an Azure blob
container and wait for the build to finish. The model details are printed
as JSON.

Example:
  longrun build-model --model-id invoices-v2 --container-url "$SAS_URL"
  longrun build-model --model-id forms --container-url "$SAS_URL" --mode neural --prefix forms/`,
	RunE: runBuildModel,
}

// copyModelCmd copies a model between resources.
var copyModelCmd = &cobra.Command{
	Use:   "copy-model",
	Short: "Copy a custom model to another Document Intelligence resource",
	Long: `Copy a custom model from the source resource (--endpoint) to a target
resource (--target-endpoint). The target authorization is requested first,
then the copy is started on the source and polled until it finishes.

Example:
  longrun copy-model --source-model invoices-v2 \
    --target-endpoint https://westeurope.example.com --target-model-id invoices-v2`,
	RunE: runCopyModel,
}

func init() {
	rootCmd.AddCommand(buildModelCmd)
	rootCmd.AddCommand(copyModelCmd)

	addServiceFlags(buildModelCmd)
	addPollFlags(buildModelCmd)
	buildModelCmd.Flags().String("model-id", "", "id of the model to build (required)")
	buildModelCmd.Flags().String("container-url", "", "SAS URL of the training data container (required)")
	buildModelCmd.Flags().String("prefix", "", "restrict training data to blobs below this folder")
	buildModelCmd.Flags().String("mode", string(docintel.BuildModeTemplate), "build mode (template, neural)")
	buildModelCmd.Flags().String("description", "", "model description")
	buildModelCmd.Flags().StringToString("tag", nil, "model tags (key=value)")
	_ = buildModelCmd.MarkFlagRequired("model-id")
	_ = buildModelCmd.MarkFlagRequired("container-url")

	addServiceFlags(copyModelCmd)
	addPollFlags(copyModelCmd)
	copyModelCmd.Flags().String("source-model", "", "id of the model to copy (required)")
	copyModelCmd.Flags().String("target-endpoint", "", "target resource endpoint (default $DOCINTEL_TARGET_ENDPOINT)")
	copyModelCmd.Flags().String("target-key", "", "target resource key (default $DOCINTEL_TARGET_KEY)")
	copyModelCmd.Flags().String("target-model-id", "", "id of the copy in the target resource (default: source model id)")
	copyModelCmd.Flags().String("description", "", "description of the copy")
	_ = copyModelCmd.MarkFlagRequired("source-model")
}

func runBuildModel(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	modelID, _ := cmd.Flags().GetString("model-id")
	containerURL, _ := cmd.Flags().GetString("container-url")
	prefix, _ := cmd.Flags().GetString("prefix")
	mode, _ := cmd.Flags().GetString("mode")
	description, _ := cmd.Flags().GetString("description")
	tags, _ := cmd.Flags().GetStringToString("tag")

	client, err := newDocintelClient(cmd, logger, "endpoint", "key", "DOCINTEL_ENDPOINT", "DOCINTEL_KEY")
	if err != nil {
		return err
	}
	defer client.Close()

	p, err := newPoller(cmd, "build", client.BuildModel())
	if err != nil {
		return err
	}

	ctx, done := signalContext(logger)
	defer done()

	h, err := p.Start(ctx, docintel.BuildRequest{
		ModelID:      modelID,
		Description:  description,
		BuildMode:    docintel.BuildMode(mode),
		ContainerURL: containerURL,
		Prefix:       prefix,
		Tags:         tags,
	})
	if err != nil {
		return err
	}
	logger.Info("model build started", "id", h.ID(), "model_id", modelID)

	if noWait, _ := cmd.Flags().GetBool("no-wait"); noWait {
		return printHandle(cmd.OutOrStdout(), h)
	}

	model, err := await(ctx, logger, p, h)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), model)
}

func runCopyModel(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	sourceModel, _ := cmd.Flags().GetString("source-model")
	targetModel, _ := cmd.Flags().GetString("target-model-id")
	description, _ := cmd.Flags().GetString("description")
	if targetModel == "" {
		targetModel = sourceModel
	}

	source, err := newDocintelClient(cmd, logger, "endpoint", "key", "DOCINTEL_ENDPOINT", "DOCINTEL_KEY")
	if err != nil {
		return err
	}
	defer source.Close()

	target, err := newDocintelClient(cmd, logger, "target-endpoint", "target-key", "DOCINTEL_TARGET_ENDPOINT", "DOCINTEL_TARGET_KEY")
	if err != nil {
		return err
	}
	defer target.Close()

	if source.Endpoint() == target.Endpoint() {
		return errors.New("source and target resources must differ")
	}

	p, err := newPoller(cmd, "copy", source.CopyModel())
	if err != nil {
		return err
	}

	ctx, done := signalContext(logger)
	defer done()

	auth, err := target.AuthorizeCopy(ctx, targetModel, description)
	if err != nil {
		return err
	}
	logger.Info("copy authorized", "target_resource", auth.TargetResourceID, "model_id", targetModel)

	h, err := p.Start(ctx, docintel.CopyRequest{
		SourceModelID: sourceModel,
		Authorization: *auth,
	})
	if err != nil {
		return err
	}
	logger.Info("model copy started", "id", h.ID())

	if noWait, _ := cmd.Flags().GetBool("no-wait"); noWait {
		return printHandle(cmd.OutOrStdout(), h)
	}

	model, err := await(ctx, logger, p, h)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), model)
}
