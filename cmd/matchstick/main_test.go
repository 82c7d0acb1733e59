package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/0xmhha/matchstick-go/internal/testutil"
)

const subgraphYAML = `
specVersion: 0.0.5
schema:
  file: ./schema.graphql
dataSources:
  - kind: ethereum/contract
    name: Gravity
    network: mainnet
    mapping:
      file: ./src/gravity.ts
      eventHandlers:
        - event: NewGravatar(uint256,address,string,string)
          handler: handleNewGravatar
        - event: UpdatedGravatar(uint256,address,string,string)
          handler: handleUpdatedGravatar
`

const schemaGraphQL = `
type Gravatar @entity {
  id: ID!
  owner: Bytes!
}
`

type project struct {
	root   string
	libs   string
	tests  string
	config string
}

// newProject lays out a subgraph with the given test files and writes a
// matchstick.yaml with absolute paths
func newProject(t *testing.T, tests map[string]string) project {
	t.Helper()
	root := t.TempDir()
	p := project{
		root:   root,
		libs:   filepath.Join(root, "node_modules"),
		tests:  filepath.Join(root, "tests"),
		config: filepath.Join(root, "matchstick.yaml"),
	}

	files := map[string]string{
		"subgraph.yaml":  subgraphYAML,
		"schema.graphql": schemaGraphQL,
		"src/gravity.ts": "export function handleNewGravatar(): void {}",
	}
	for name, content := range tests {
		files["tests/"+name] = content
	}
	testutil.WriteFiles(t, root, files)

	cfg, err := yaml.Marshal(map[string]string{
		"testsFolder":  p.tests,
		"libsFolder":   p.libs,
		"manifestPath": filepath.Join(root, "subgraph.yaml"),
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p.config, cfg, 0644))
	return p
}

// copyingAsc installs an asc stand-in that copies the test source to the
// output, so the "module" text is the source text
func (p project) copyingAsc(t *testing.T) {
	t.Helper()
	testutil.WriteScript(t, filepath.Join(p.libs, "assemblyscript", "bin", "asc"), `
in="$1"
while [ $# -gt 0 ]; do
  if [ "$1" = "--outFile" ]; then out="$2"; fi
  shift
done
cp "$in" "$out"
`)
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "dev")
}

func TestUnknownFlag(t *testing.T) {
	code, _, stderr := runCLI(t, "--bogus")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown flag")
}

func TestInvalidConfig(t *testing.T) {
	p := newProject(t, nil)
	code, _, stderr := runCLI(t, "--config", p.config, "--log-level", "chatty", "--no-color")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid log level")
}

func TestMissingManifest(t *testing.T) {
	p := newProject(t, nil)
	require.NoError(t, os.Remove(filepath.Join(p.root, "subgraph.yaml")))

	code, _, stderr := runCLI(t, "--config", p.config, "--no-color")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "🆘")
	assert.Contains(t, stderr, "subgraph.yaml")
}

func TestNoTests(t *testing.T) {
	p := newProject(t, map[string]string{"utils.ts": ""})
	testutil.FakeAsc(t, p.libs)

	code, _, stderr := runCLI(t, "--config", p.config, "--no-color")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no tests have been written yet")
}

func TestNoMatchingSuite(t *testing.T) {
	p := newProject(t, map[string]string{"gravity.test.ts": ""})
	testutil.FakeAsc(t, p.libs)

	code, _, stderr := runCLI(t, "--config", p.config, "--no-color", "token")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no tests match set patterns: token")
}

func TestCompilationErrors(t *testing.T) {
	p := newProject(t, map[string]string{"broken.test.ts": ""})
	testutil.FakeAsc(t, p.libs)

	code, stdout, stderr := runCLI(t, "--config", p.config, "--no-color")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "TS1005")
	assert.Contains(t, stderr, "Please attend to the compilation errors above!")
}

func TestCoverageMode(t *testing.T) {
	p := newProject(t, map[string]string{
		"gravity.test.ts": "call $src/gravity/handleNewGravatar",
	})
	p.copyingAsc(t)
	testutil.FakeWasm2Wat(t, p.libs)

	code, stdout, stderr := runCLI(t, "--config", p.config, "--no-color", "--coverage")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Running in coverage report mode.")
	assert.Contains(t, stdout, "Compiling gravity...")
	assert.Contains(t, stdout, "Handler 'handleNewGravatar' is tested.")
	assert.Contains(t, stdout, "Handler 'handleUpdatedGravatar' is not tested.")
	assert.Contains(t, stdout, "Global test coverage: 50.0% (1/2 handlers).")

	_, err := os.Stat(filepath.Join(p.tests, ".bin", "gravity.wat"))
	assert.NoError(t, err)
}

func TestInvalidModuleWritesMetrics(t *testing.T) {
	p := newProject(t, map[string]string{"gravity.test.ts": ""})
	testutil.FakeAsc(t, p.libs)
	metrics := filepath.Join(p.root, "metrics.prom")

	code, _, stderr := runCLI(t, "--config", p.config, "--no-color", "--metrics-file", metrics)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "compile module gravity")

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "matchstick_runner_suites_total 0")
}

func TestDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, os.WriteFile(".env", []byte("MATCHSTICK_TESTS_FOLDER=./from-dotenv\n"), 0644))
	t.Setenv("MATCHSTICK_TESTS_FOLDER", "")
	require.NoError(t, os.Unsetenv("MATCHSTICK_TESTS_FOLDER"))

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "./from-dotenv", cfg.TestsFolder)
}

func TestDotEnvDirectory(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, os.Mkdir(".env", 0755))
	_, err := loadConfig("")
	assert.Error(t, err)
}
