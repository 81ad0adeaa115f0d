package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gork-labs/unitgen/internal/diag"
	"github.com/gork-labs/unitgen/internal/emitter"
	"github.com/gork-labs/unitgen/internal/extractor"
	"github.com/gork-labs/unitgen/internal/generator"
	"github.com/gork-labs/unitgen/internal/typedef"
	"github.com/gork-labs/unitgen/internal/validator"
)

// DefaultConfigFile is read from the working directory when --config is not
// given and the file exists.
const DefaultConfigFile = ".unitgen.yml"

func newGenerateCommand() *cobra.Command {
	var config GenerateConfig

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate unit companion types",
		Long: `Generate scans Go packages for //unitgen:derive declarations and writes
one <file>_unit_gen.go next to every source file declaring them. With --defs
it renders YAML type definitions into --output instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := prepare(cmd, &config); err != nil {
				return err
			}
			return Generate(cmd.Context(), &config, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	addGenerateFlags(cmd, &config)
	return cmd
}

func addGenerateFlags(cmd *cobra.Command, config *GenerateConfig) {
	cmd.Flags().StringVar(&config.SourcePath, "source", ".", "Directory tree of Go packages to scan")
	cmd.Flags().BoolVar(&config.BitFlags, "bitflags", false, "Represent companions as bit-flag sets unless a directive says otherwise")
	cmd.Flags().BoolVar(&config.Serialize, "serialize", false, "Generate MarshalText/UnmarshalText unless a directive says otherwise")
	cmd.Flags().StringVar(&config.Suffix, "suffix", generator.DefaultSuffix, "Companion type name suffix")
	cmd.Flags().StringVar(&config.FileSuffix, "file-suffix", emitter.DefaultSuffix, "Generated file name suffix")
	cmd.Flags().StringVar(&config.ConfigPath, "config", "", "Path to .unitgen.yml config file")
	cmd.Flags().BoolVar(&config.Check, "check", false, "Print a diff and fail instead of writing when generated files are stale")
	cmd.Flags().StringVar(&config.DefsPath, "defs", "", "YAML type definitions to generate from instead of Go source")
	cmd.Flags().StringVar(&config.Package, "package", "", "Package clause of the --defs output (default: the file's package key)")
	cmd.Flags().StringVar(&config.OutputPath, "output", "", "Output file for --defs")
	cmd.Flags().BoolVar(&config.Verbose, "verbose", false, "Log generation decisions")
}

// GenerateConfig holds configuration for unit companion generation.
type GenerateConfig struct {
	SourcePath string `validate:"required_without=DefsPath"`
	BitFlags   bool
	Serialize  bool
	Suffix     string `validate:"omitempty,alphanum"`
	FileSuffix string `validate:"omitempty,endswith=.go"`
	DefsPath   string `validate:"omitempty,endswith=.yaml|endswith=.yml"`
	Package    string
	OutputPath string `validate:"required_with=DefsPath"`
	Check      bool
	ConfigPath string
	Verbose    bool
}

// Options returns the generator defaults of the configuration.
func (c *GenerateConfig) Options() generator.Options {
	return generator.Options{
		BitFlags:  c.BitFlags,
		Serialize: c.Serialize,
		Suffix:    c.Suffix,
	}
}

func (c *GenerateConfig) fileSuffix() string {
	if c.FileSuffix == "" {
		return emitter.DefaultSuffix
	}
	return c.FileSuffix
}

// configFile is the layout of .unitgen.yml.
type configFile struct {
	Generate struct {
		Source     string `yaml:"source"`
		BitFlags   *bool  `yaml:"bitflags"`
		Serialize  *bool  `yaml:"serialize"`
		Suffix     string `yaml:"suffix" validate:"omitempty,alphanum"`
		FileSuffix string `yaml:"file_suffix" validate:"omitempty,endswith=.go"`
		Defs       string `yaml:"defs"`
		Package    string `yaml:"package"`
		Output     string `yaml:"output"`
	} `yaml:"generate"`
}

// prepare merges the config file into config, validates the result and
// installs the --verbose logger.
func prepare(cmd *cobra.Command, config *GenerateConfig) error {
	if err := loadConfigFile(config, cmd.Flags().Changed); err != nil {
		return err
	}
	if err := validator.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", validator.Describe(err))
	}
	if config.Verbose {
		l, err := newVerboseLogger()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		SetLogger(l)
	}
	return nil
}

// loadConfigFile applies the config file to config. Values whose flag was
// set on the command line, as reported by changed, are kept.
func loadConfigFile(config *GenerateConfig, changed func(flag string) bool) error {
	path := config.ConfigPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return nil
		}
		path = DefaultConfigFile
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	var cfg configFile
	if err := validator.DecodeFile(path, &cfg); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	g := cfg.Generate
	setString(changed, "source", &config.SourcePath, g.Source)
	setBool(changed, "bitflags", &config.BitFlags, g.BitFlags)
	setBool(changed, "serialize", &config.Serialize, g.Serialize)
	setString(changed, "suffix", &config.Suffix, g.Suffix)
	setString(changed, "file-suffix", &config.FileSuffix, g.FileSuffix)
	setString(changed, "defs", &config.DefsPath, g.Defs)
	setString(changed, "package", &config.Package, g.Package)
	setString(changed, "output", &config.OutputPath, g.Output)
	return nil
}

func setString(changed func(string) bool, flag string, dst *string, v string) {
	if v != "" && !changed(flag) {
		*dst = v
	}
}

func setBool(changed func(string) bool, flag string, dst *bool, v *bool) {
	if v != nil && !changed(flag) {
		*dst = *v
	}
}

// Generate runs one generation pass. Diagnostics are written to stderr and
// check-mode diffs to stdout; either makes Generate fail once the pass is
// complete.
func Generate(ctx context.Context, config *GenerateConfig, stdout, stderr io.Writer) error {
	d := &driver{
		config: config,
		opts:   config.Options(),
		stdout: stdout,
		stderr: stderr,
		log:    Logger(),
	}

	var err error
	if config.DefsPath != "" {
		err = d.generateDefs(ctx)
	} else {
		err = d.generateSource(ctx)
	}
	if err != nil {
		return err
	}
	return d.result()
}

// driver carries the state of one generation pass.
type driver struct {
	config *GenerateConfig
	opts   generator.Options
	stdout io.Writer
	stderr io.Writer
	log    *zap.Logger

	diagnostics int
	stale       int
}

func (d *driver) result() error {
	if d.diagnostics > 0 {
		return fmt.Errorf("%d declaration(s) could not be generated", d.diagnostics)
	}
	if d.stale > 0 {
		return fmt.Errorf("%d generated file(s) are out of date; run unitgen generate", d.stale)
	}
	return nil
}

func (d *driver) diagnose(err error) {
	d.diagnostics++
	fmt.Fprintln(d.stderr, err)
}

func (d *driver) generateDefs(ctx context.Context) error {
	f, err := typedef.LoadFile(d.config.DefsPath)
	if err != nil {
		var de *diag.Error
		if errors.As(err, &de) {
			d.diagnose(err)
			return nil
		}
		return err
	}

	pkg := d.config.Package
	if pkg == "" {
		pkg = f.Package
	}
	if pkg == "" {
		return errors.New("--package is required when the definitions file names no package")
	}

	defs := make([]*typedef.TypeDefinition, len(f.Types))
	for i := range f.Types {
		defs[i] = &f.Types[i]
	}
	frags, ok, err := d.expand(ctx, defs)
	if err != nil || !ok {
		return err
	}
	return d.emit(pkg, frags, d.config.OutputPath)
}

func (d *driver) generateSource(ctx context.Context) error {
	dirs, err := sourceDirs(d.config.SourcePath)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", d.config.SourcePath, err)
	}
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.generateDir(ctx, dir); err != nil {
			return err
		}
	}
	return nil
}

func (d *driver) isGenerated(name string) bool {
	return strings.HasSuffix(name, d.config.fileSuffix())
}

// generateDir regenerates the companion files of one directory. A source
// file with extraction errors keeps its previous output, and a file that
// fails to render is reported without stopping the pass.
func (d *driver) generateDir(ctx context.Context, dir string) error {
	ext := extractor.NewExtractor(d.isGenerated)
	if err := ext.ParseDirectory(dir); err != nil {
		return err
	}

	found, errs := ext.Extract()
	broken := map[string]bool{}
	for _, err := range errs {
		d.diagnose(err)
		var de *diag.Error
		if errors.As(err, &de) {
			broken[de.Pos.File] = true
		}
	}

	byFile := map[string][]*typedef.TypeDefinition{}
	for _, a := range found {
		byFile[a.File] = append(byFile[a.File], a.Def)
	}

	files := ext.Files()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if broken[path] {
			continue
		}
		frags, ok, err := d.expand(ctx, byFile[path])
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		out := emitter.OutputPath(path, d.config.fileSuffix())
		if err := d.emit(files[path].Name.Name, frags, out); err != nil {
			d.diagnose(err)
		}
	}

	return d.removeOrphans(dir, files)
}

// removeOrphans removes generated files whose source file is gone.
func (d *driver) removeOrphans(dir string, files map[string]*ast.File) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	suffix := d.config.fileSuffix()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		source := filepath.Join(dir, strings.TrimSuffix(e.Name(), suffix)+".go")
		if _, ok := files[source]; ok {
			continue
		}
		if _, err := os.Stat(source); err == nil {
			// The source exists but was not parsed (a test file, say).
			continue
		}
		if err := d.emit("", nil, filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// expand expands defs, reporting diagnostics. ok is false when any
// definition failed.
func (d *driver) expand(ctx context.Context, defs []*typedef.TypeDefinition) ([]*generator.Fragment, bool, error) {
	if len(defs) == 0 {
		return nil, true, nil
	}
	results, err := generator.ExpandAll(ctx, defs, d.opts)
	if err != nil {
		return nil, false, err
	}

	ok := true
	frags := make([]*generator.Fragment, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			d.diagnose(r.Err)
			ok = false
			continue
		}
		if r.Fragment.Empty {
			d.log.Debug("no tags, skipping", zap.String("type", r.Def.Name))
			continue
		}
		out := r.Fragment.Output
		d.log.Debug("derived companion",
			zap.String("type", r.Def.Name),
			zap.String("companion", out.Name),
			zap.Stringer("repr", out.Repr),
			zap.Int("width", int(out.Width)),
			zap.Int("tags", len(out.Members)),
		)
		frags = append(frags, r.Fragment)
	}
	return frags, ok, nil
}

// emit writes frags to path, or removes path when there is nothing to
// write. In check mode it compares instead.
func (d *driver) emit(pkg string, frags []*generator.Fragment, path string) error {
	e := emitter.New(pkg)
	if d.config.Check {
		src, err := e.Render(frags)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return d.compare(path, src)
	}

	wrote, err := e.GenerateFile(frags, path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if wrote {
		d.log.Info("generated", zap.String("file", path))
		return nil
	}
	if err := os.Remove(path); err == nil {
		d.log.Info("removed", zap.String("file", path))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// compare prints a unified diff when the file at path differs from want.
func (d *driver) compare(path string, want []byte) error {
	have, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if bytes.Equal(have, want) {
		return nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(have)),
		B:        difflib.SplitLines(string(want)),
		FromFile: path,
		ToFile:   path + " (generated)",
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("diff %s: %w", path, err)
	}
	d.stale++
	d.log.Info("stale", zap.String("file", path))
	fmt.Fprint(d.stdout, diff)
	return nil
}

// sourceDirs lists root and its subdirectories, skipping the ones the go
// tool ignores.
func sourceDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !de.IsDir() {
			return nil
		}
		if path != root && skipDir(de.Name()) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}
