package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-mvc/pkg/binding"
	"github.com/goliatone/go-mvc/pkg/model"
	"github.com/goliatone/go-mvc/pkg/mvc"
)

type renderFlags struct {
	templates   string
	baseFolder  string
	models      []string
	require     []string
	interactive bool
	output      string
}

func newRenderCmd(global *globalFlags, prompt prompter) *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render <view>",
		Short: "Render a view with models from the command line",
		Long: `Render resolves the view against the base folder, selects the highest
priority engine that supports it, and writes the output.

Examples:
  # Render with two models
  mvc-render render users/show.tpl --templates ./views --model user=ada --model site=docs

  # Fail unless user is supplied, or prompt for it
  mvc-render render users/show.tpl --templates ./views --require user --interactive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, global, flags, prompt, args[0])
		},
	}
	cmd.Flags().StringVarP(&flags.templates, "templates", "t", "", "template directory (overrides views.template_dir)")
	cmd.Flags().StringVar(&flags.baseFolder, "base-folder", "", "view base folder (overrides views.base_folder)")
	cmd.Flags().StringArrayVarP(&flags.models, "model", "m", nil, "model as name=value, repeatable")
	cmd.Flags().StringSliceVar(&flags.require, "require", nil, "models that must be present")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "prompt for missing required models")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func runRender(cmd *cobra.Command, global *globalFlags, flags *renderFlags, prompt prompter, viewName string) error {
	cfg, logger, err := global.load(cmd)
	if err != nil {
		return err
	}
	if flags.templates != "" {
		cfg.Views.TemplateDir = flags.templates
	}
	if flags.baseFolder != "" {
		cfg.Views.BaseFolder = flags.baseFolder
	}
	if cfg.Views.TemplateDir == "" {
		return errors.New("render: --templates or views.template_dir is required")
	}

	values, err := parseModels(flags.models)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := requireModels(ctx, logger, values, flags.require, flags.interactive, prompt); err != nil {
		return err
	}

	app := mvc.New(mvc.WithConfig(cfg), mvc.WithLogger(logger))
	defer func() { _ = app.Close() }()
	if err := app.Err(); err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if flags.output != "" {
		file, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		defer file.Close()
		out = file
	}

	models := model.New()
	for name, vs := range values {
		if len(vs) == 1 {
			models.Put(name, vs[0])
		} else {
			models.Put(name, vs)
		}
	}
	if err := app.Dispatcher().Dispatch(ctx, viewName, models, out); err != nil {
		return err
	}
	if flags.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "View written to %s\n", flags.output)
	}
	return nil
}

// parseModels reads name=value pairs. Repeating a name collects a list.
func parseModels(pairs []string) (url.Values, error) {
	values := url.Values{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("render: model %q must be name=value", pair)
		}
		values.Add(name, value)
	}
	return values, nil
}

// requireModels binds the required names as opt-in params so every missing
// model is reported at once. In interactive mode the missing ones are
// prompted for.
func requireModels(ctx context.Context, logger *slog.Logger, values url.Values, names []string, interactive bool, prompt prompter) error {
	if len(names) == 0 {
		return nil
	}
	params := make([]binding.Param, 0, len(names))
	for _, name := range names {
		params = append(params, binding.ParamOf[string](strings.TrimSpace(name), binding.Required()).WithOptIn())
	}
	binder := binding.NewBinder(binding.WithLogger(logger))

	check := func() (*binding.Result, error) {
		result := binding.NewResult()
		if _, err := binder.BindAll(ctx, params, binding.URLValues(values), result); err != nil {
			return nil, err
		}
		return result, nil
	}

	result, err := check()
	if err != nil {
		return err
	}
	if !result.IsFailed() {
		return nil
	}
	if !interactive || prompt == nil {
		return fmt.Errorf("render: missing models: %s", strings.Join(result.Params(), ", "))
	}

	messages := result.Messages()
	for _, name := range result.Params() {
		value, err := prompt(name, name+" "+strings.Join(messages[name], "; "))
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		values.Set(name, value)
	}

	result, err = check()
	if err != nil {
		return err
	}
	if result.IsFailed() {
		return fmt.Errorf("render: missing models: %s", strings.Join(result.Params(), ", "))
	}
	return nil
}
