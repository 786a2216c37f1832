package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pipelineframework/corepipe/internal/compiler"
	"github.com/pipelineframework/corepipe/internal/diagnostics"
	"github.com/pipelineframework/corepipe/internal/errs"
	"github.com/pipelineframework/corepipe/internal/pipelineconfig"
	"github.com/pipelineframework/corepipe/internal/placement"
	"github.com/pipelineframework/corepipe/internal/schemabinding"
	"github.com/pipelineframework/corepipe/internal/storage"
)

var (
	moduleDir        string
	moduleName       string
	outputDir        string
	pipelineFile     string
	runtimeMapFile   string
	descriptorSet    string
	descriptorDir    string
	descriptorURL    string
	siblingCommonDir string
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a pipeline module's declarations into runtime artifacts",
	Long: `compile runs the eight-phase compiler (Discovery, Model Extraction,
Runtime Mapping, Semantic Analysis, Target Resolution, Binding
Construction, Generation, Infrastructure) against a module directory's
pipeline declaration and writes the generated server handlers, client
stubs, orchestrator wiring, and metadata files to the output directory.`,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringVar(&moduleDir, "module-dir", ".", "module directory to compile")
	compileCmd.Flags().StringVar(&moduleName, "module-name", "", "identity of the module being compiled (required under STRICT validation)")
	compileCmd.Flags().StringVar(&outputDir, "output-dir", "generated", "directory generated artifacts are written to")
	compileCmd.Flags().StringVar(&pipelineFile, "pipeline-file", "", "explicit path to the pipeline declaration (overrides discovery)")
	compileCmd.Flags().StringVar(&runtimeMapFile, "runtime-mapping", "", "explicit path to the runtime mapping document")
	compileCmd.Flags().StringVar(&descriptorSet, "descriptor-set", "", "explicit path to a compiled descriptor set file")
	compileCmd.Flags().StringVar(&descriptorDir, "descriptor-dir", "", "directory to search for a descriptor set")
	compileCmd.Flags().StringVar(&descriptorURL, "descriptor-url", "", "remote schema registry URL to fetch a descriptor set from")
	compileCmd.Flags().StringVar(&siblingCommonDir, "sibling-common-dir", "", "sibling module directory to search for a descriptor set (e.g. ../common)")

	mustBindPFlag("compile.output-dir", compileCmd.Flags().Lookup("output-dir"))

	rootCmd.AddCommand(compileCmd)
}

// runCompile assembles a CompilationContext from the discovered
// pipeline and runtime mapping documents and drives the canonical
// eight-phase Driver over it.
func runCompile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	path := pipelineFile
	if path == "" {
		located, err := pipelineconfig.Locate(moduleDir)
		if err != nil {
			return exitError(err)
		}
		if located == "" {
			return exitError(fmt.Errorf("%w: no pipeline declaration found under %s", errs.ErrConfigNotFound, moduleDir))
		}
		path = located
	}

	pipelineDoc, err := pipelineconfig.Load(path)
	if err != nil {
		return exitError(err)
	}

	cc := compiler.NewCompilationContext(moduleDir)
	cc.ModuleName = moduleName
	cc.PipelineFile = pipelineDoc
	cc.OutputDir = viper.GetString("compile.output-dir")
	cc.DescriptorSetPath = descriptorSet

	if runtimeMapFile != "" {
		mappingDoc, err := pipelineconfig.LoadRuntimeMapping(runtimeMapFile)
		if err != nil {
			return exitError(err)
		}
		cc.RuntimeMapping = placement.FromFile(*mappingDoc)
	}

	sandbox, err := storage.NewSandbox(cc.OutputDir)
	if err != nil {
		return exitError(err)
	}

	reporter := diagnostics.New(logger)

	phases := []compiler.Phase{
		compiler.DiscoveryPhase{},
		compiler.ModelExtractionPhase{Reporter: reporter},
		compiler.RuntimeMappingPhase{Reporter: reporter},
		compiler.SemanticAnalysisPhase{},
		compiler.TargetResolutionPhase{},
		compiler.BindingConstructionPhase{ResolveOptions: schemabinding.Options{
			ExplicitDir:      descriptorDir,
			DescriptorURL:    descriptorURL,
			SiblingCommonDir: siblingCommonDir,
		}},
		compiler.GenerationPhase{Sandbox: sandbox},
		compiler.InfrastructurePhase{Sandbox: sandbox},
	}

	driver := compiler.NewDriver(phases, logger)
	result, runErr := driver.Run(ctx, cc)
	if runErr != nil {
		return exitError(runErr)
	}

	logger.Info("compilation succeeded",
		slog.Duration("duration", result.Duration),
		slog.Int("files_written", len(cc.GeneratedFiles)),
		slog.String("output_dir", sandbox.BaseDir()),
	)
	return nil
}

// exitError classifies err and sets the process exit code before
// returning it to cobra, so the process still exits nonzero even when
// a caller swallows the returned error.
func exitError(err error) error {
	switch errs.Classify(err) {
	case errs.KindInvalidInput, errs.KindInvalidConfiguration, errs.KindBindingFailure:
		exitCode = 2
	default:
		exitCode = 1
	}
	slog.Default().Error("compile failed", slog.String("error", err.Error()))
	return err
}

var exitCode int

// ExitCode returns the process exit code selected by the last failed
// command, or 0 if none failed.
func ExitCode() int {
	return exitCode
}
