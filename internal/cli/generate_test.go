package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const shapesSource = `package shapes

//unitgen:derive
type Shape interface{ isShape() }

type Circle struct{ R float64 }

type Square struct{ S float64 }

func (Circle) isShape() {}

func (*Square) isShape() {}

//unitgen:derive bitflags,serialize
type Perm struct{ read, write, exec bool }
`

const emptySource = `package shapes

//unitgen:derive
type Nothing struct{}
`

const rawSource = `package shapes

//unitgen:derive
type Raw map[string]int
`

const packetDefs = `package: proto
types:
  - name: Packet
    kind: tagged_union
    variants:
      - name: Ping
      - name: Data
        payload: {kind: positional, count: 2}
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func generate(t *testing.T, config *GenerateConfig) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Generate(context.Background(), config, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestGenerateSource(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"shapes.go":        shapesSource,
		"empty.go":         emptySource,
		"empty_unit_gen.go": "package shapes\n",
		"gone_unit_gen.go":  "package shapes\n",
		"nested/n.go":      strings.Replace(shapesSource, "package shapes", "package nested", 1),
		"testdata/t.go":    rawSource,
		"_skip/s.go":       rawSource,
	})

	_, stderr, err := generate(t, &GenerateConfig{SourcePath: dir})
	require.NoError(t, err, stderr)

	code := readFile(t, filepath.Join(dir, "shapes_unit_gen.go"))
	for _, want := range []string{
		"// Code generated by unitgen. DO NOT EDIT.",
		"package shapes",
		"type ShapeUnit uint8",
		"func ShapeKind(v Shape) ShapeUnit {",
		"case Circle, *Circle:",
		"case *Square:",
		"func ShapeUnitFrom(v Shape) ShapeUnit {",
		"type PermUnit uint8",
		"PermUnitRead PermUnit = 1 << iota",
		"func (u *PermUnit) UnmarshalText(text []byte) error {",
	} {
		assert.Contains(t, code, want)
	}
	assert.NotContains(t, code, "ShapeUnit) MarshalText")

	assert.Contains(t, readFile(t, filepath.Join(dir, "nested", "n_unit_gen.go")), "package nested")
	assert.NoFileExists(t, filepath.Join(dir, "empty_unit_gen.go"), "a file without companions is removed")
	assert.NoFileExists(t, filepath.Join(dir, "gone_unit_gen.go"), "a file without source is removed")
	assert.NoFileExists(t, filepath.Join(dir, "testdata", "t_unit_gen.go"))
	assert.NoFileExists(t, filepath.Join(dir, "_skip", "s_unit_gen.go"))
}

func TestGenerateIdempotent(t *testing.T) {
	dir := writeTree(t, map[string]string{"shapes.go": shapesSource})
	out := filepath.Join(dir, "shapes_unit_gen.go")

	_, _, err := generate(t, &GenerateConfig{SourcePath: dir})
	require.NoError(t, err)
	first := readFile(t, out)

	_, _, err = generate(t, &GenerateConfig{SourcePath: dir})
	require.NoError(t, err)
	assert.Equal(t, first, readFile(t, out))
}

func TestGenerateCheck(t *testing.T) {
	dir := writeTree(t, map[string]string{"shapes.go": shapesSource})
	out := filepath.Join(dir, "shapes_unit_gen.go")

	stdout, _, err := generate(t, &GenerateConfig{SourcePath: dir, Check: true})
	assert.ErrorContains(t, err, "1 generated file(s) are out of date")
	assert.Contains(t, stdout, "+++ "+out+" (generated)")
	assert.NoFileExists(t, out, "check never writes")

	_, _, err = generate(t, &GenerateConfig{SourcePath: dir})
	require.NoError(t, err)

	stdout, _, err = generate(t, &GenerateConfig{SourcePath: dir, Check: true})
	require.NoError(t, err)
	assert.Empty(t, stdout)

	require.NoError(t, os.WriteFile(out, []byte(readFile(t, out)+"// edited\n"), 0o644))
	stdout, _, err = generate(t, &GenerateConfig{SourcePath: dir, Check: true})
	assert.Error(t, err)
	assert.Contains(t, stdout, "--- "+out)
	assert.Contains(t, stdout, "-// edited")
}

func TestGenerateDiagnostics(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"shapes.go": shapesSource,
		"raw.go":    rawSource,
	})

	_, stderr, err := generate(t, &GenerateConfig{SourcePath: dir})
	assert.EqualError(t, err, "1 declaration(s) could not be generated")
	assert.Contains(t, stderr,
		filepath.Join(dir, "raw.go")+":4:6: unsupported shape in Raw: untagged unions are not supported (map type has no tag layout)")

	assert.NoFileExists(t, filepath.Join(dir, "raw_unit_gen.go"))
	assert.FileExists(t, filepath.Join(dir, "shapes_unit_gen.go"), "other files are still generated")
}

func TestGenerateInvalidNameDoesNotStopPass(t *testing.T) {
	badName := `package a

//unitgen:derive name=Bad-Name
type Shape struct{ a, b int }
`
	fieldNamedValues := `package c

//unitgen:derive
type Series struct{ Name, Values int }
`
	dir := writeTree(t, map[string]string{
		"a/a.go":      badName,
		"b/shapes.go": shapesSource,
		"c/c.go":      fieldNamedValues,
	})

	_, stderr, err := generate(t, &GenerateConfig{SourcePath: dir})
	assert.EqualError(t, err, "2 declaration(s) could not be generated")
	assert.Contains(t, stderr, `name "Bad-Name" is not an identifier`)
	assert.Contains(t, stderr, `duplicate tag in Series: "Values" derives member SeriesUnitValues`)

	assert.NoFileExists(t, filepath.Join(dir, "a", "a_unit_gen.go"))
	assert.NoFileExists(t, filepath.Join(dir, "a", "a_unit_gen.go.debug"))
	assert.NoFileExists(t, filepath.Join(dir, "c", "c_unit_gen.go"))
	assert.FileExists(t, filepath.Join(dir, "b", "shapes_unit_gen.go"))
}

func TestGenerateKeepsOutputOfBrokenFile(t *testing.T) {
	dir := writeTree(t, map[string]string{"shapes.go": shapesSource})
	out := filepath.Join(dir, "shapes_unit_gen.go")

	_, _, err := generate(t, &GenerateConfig{SourcePath: dir})
	require.NoError(t, err)
	before := readFile(t, out)

	broken := shapesSource + "\n//unitgen:derive nope\ntype Later struct{ a int }\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.go"), []byte(broken), 0o644))

	_, stderr, err := generate(t, &GenerateConfig{SourcePath: dir})
	assert.Error(t, err)
	assert.Contains(t, stderr, "malformed //unitgen:derive directive")
	assert.Equal(t, before, readFile(t, out))
}

func TestGenerateOptions(t *testing.T) {
	dir := writeTree(t, map[string]string{"shapes.go": shapesSource})

	_, _, err := generate(t, &GenerateConfig{
		SourcePath: dir,
		BitFlags:   true,
		Serialize:  true,
		Suffix:     "Tag",
		FileSuffix: "_tags.go",
	})
	require.NoError(t, err)

	code := readFile(t, filepath.Join(dir, "shapes_tags.go"))
	assert.Contains(t, code, "ShapeTagCircle ShapeTag = 1 << iota")
	assert.Contains(t, code, "func (u ShapeTag) MarshalText() ([]byte, error) {")
	assert.Contains(t, code, "func ShapeTagFrom(v Shape) ShapeTag {")
	assert.NoFileExists(t, filepath.Join(dir, "shapes_unit_gen.go"))
}

func TestGenerateDefs(t *testing.T) {
	dir := writeTree(t, map[string]string{"types.yaml": packetDefs})
	out := filepath.Join(dir, "gen", "packet_unit_gen.go")

	_, stderr, err := generate(t, &GenerateConfig{
		DefsPath:   filepath.Join(dir, "types.yaml"),
		OutputPath: out,
	})
	require.NoError(t, err, stderr)

	code := readFile(t, out)
	assert.Contains(t, code, "package proto")
	assert.Contains(t, code, "func PacketKind(v Packet) PacketUnit {")
	assert.Contains(t, code, "case Data, *Data:")

	_, _, err = generate(t, &GenerateConfig{
		DefsPath:   filepath.Join(dir, "types.yaml"),
		OutputPath: out,
		Package:    "wire",
	})
	require.NoError(t, err)
	assert.Contains(t, readFile(t, out), "package wire")
}

func TestGenerateDefsErrors(t *testing.T) {
	t.Run("raw union", func(t *testing.T) {
		dir := writeTree(t, map[string]string{"types.yaml": "package: p\ntypes:\n  - name: Raw\n    kind: union\n"})
		_, stderr, err := generate(t, &GenerateConfig{
			DefsPath:   filepath.Join(dir, "types.yaml"),
			OutputPath: filepath.Join(dir, "out.go"),
		})
		assert.Error(t, err)
		assert.Contains(t, stderr, "types.yaml:3:5: unsupported shape in Raw")
		assert.NoFileExists(t, filepath.Join(dir, "out.go"))
	})

	t.Run("invalid definition", func(t *testing.T) {
		dir := writeTree(t, map[string]string{"types.yaml": "types:\n  - kind: record\n"})
		_, stderr, err := generate(t, &GenerateConfig{
			DefsPath:   filepath.Join(dir, "types.yaml"),
			OutputPath: filepath.Join(dir, "out.go"),
		})
		assert.Error(t, err)
		assert.Contains(t, stderr, "invalid definition")
	})

	t.Run("no package", func(t *testing.T) {
		dir := writeTree(t, map[string]string{"types.yaml": "types:\n  - name: R\n    kind: record\n    positional: 2\n"})
		_, _, err := generate(t, &GenerateConfig{
			DefsPath:   filepath.Join(dir, "types.yaml"),
			OutputPath: filepath.Join(dir, "out.go"),
		})
		assert.ErrorContains(t, err, "--package is required")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := generate(t, &GenerateConfig{
			DefsPath:   filepath.Join(t.TempDir(), "types.yaml"),
			OutputPath: "out.go",
		})
		assert.ErrorContains(t, err, "read definitions")
	})
}

func TestGenerateLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	dir := writeTree(t, map[string]string{
		"shapes.go": shapesSource,
		"empty.go":  emptySource,
	})
	_, _, err := generate(t, &GenerateConfig{SourcePath: dir})
	require.NoError(t, err)

	derived := logs.FilterMessage("derived companion").All()
	require.Len(t, derived, 2)
	assert.Equal(t, "Shape", derived[0].ContextMap()["type"])
	assert.Equal(t, "bitflags", derived[1].ContextMap()["repr"])

	assert.Equal(t, 1, logs.FilterMessage("no tags, skipping").Len())
	generated := logs.FilterMessage("generated").All()
	require.Len(t, generated, 1)
	assert.Equal(t, filepath.Join(dir, "shapes_unit_gen.go"), generated[0].ContextMap()["file"])
}

func TestGenerateCanceled(t *testing.T) {
	dir := writeTree(t, map[string]string{"shapes.go": shapesSource})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Generate(ctx, &GenerateConfig{SourcePath: dir}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, "shapes_unit_gen.go"))
}

func TestLoadConfigFile(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"unitgen.yml": `generate:
  source: ./pkg
  bitflags: true
  serialize: false
  suffix: Tag
  file_suffix: _tag.go
`,
		"bad.yml":    "generate:\n  colour: red\n",
		"suffix.yml": "generate:\n  suffix: not-alnum\n",
	})

	t.Run("file fills unchanged flags", func(t *testing.T) {
		config := &GenerateConfig{
			SourcePath: ".",
			Serialize:  true,
			Suffix:     "Unit",
			ConfigPath: filepath.Join(dir, "unitgen.yml"),
		}
		changed := func(flag string) bool { return flag == "suffix" }
		require.NoError(t, loadConfigFile(config, changed))

		assert.Equal(t, "./pkg", config.SourcePath)
		assert.True(t, config.BitFlags)
		assert.False(t, config.Serialize)
		assert.Equal(t, "Unit", config.Suffix, "flags set on the command line win")
		assert.Equal(t, "_tag.go", config.FileSuffix)
	})

	t.Run("nil changed", func(t *testing.T) {
		config := &GenerateConfig{ConfigPath: filepath.Join(dir, "unitgen.yml")}
		require.NoError(t, loadConfigFile(config, nil))
		assert.Equal(t, "Tag", config.Suffix)
	})

	t.Run("no config file", func(t *testing.T) {
		config := &GenerateConfig{SourcePath: "."}
		require.NoError(t, loadConfigFile(config, nil))
		assert.Equal(t, &GenerateConfig{SourcePath: "."}, config)
	})

	t.Run("unknown key", func(t *testing.T) {
		err := loadConfigFile(&GenerateConfig{ConfigPath: filepath.Join(dir, "bad.yml")}, nil)
		assert.ErrorContains(t, err, "field colour not found")
	})

	t.Run("invalid value", func(t *testing.T) {
		err := loadConfigFile(&GenerateConfig{ConfigPath: filepath.Join(dir, "suffix.yml")}, nil)
		assert.ErrorContains(t, err, `Suffix fails "alphanum"`)
	})
}
