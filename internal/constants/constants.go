package constants

// Project layout defaults
const (
	// DefaultConfigFile is the configuration file read from the working directory
	DefaultConfigFile = "matchstick.yaml"

	// DefaultTestsFolder is the default folder holding the *.test.ts files
	DefaultTestsFolder = "./tests"

	// DefaultLibsFolder is the default folder holding the node dependencies
	DefaultLibsFolder = "./node_modules"

	// DefaultManifestPath is the default location of the subgraph manifest
	DefaultManifestPath = "./subgraph.yaml"

	// BinFolder is the folder under the tests folder that receives compiled modules
	BinFolder = ".bin"

	// TestFileSuffix marks the test sources of a suite
	TestFileSuffix = ".test.ts"
)

// Toolchain paths, relative to the libs folder
const (
	// AscBinary is the AssemblyScript compiler entry point
	AscBinary = "assemblyscript/bin/asc"

	// GraphTSGlobal is the graph-ts file compiled into every test module
	GraphTSGlobal = "@graphprotocol/graph-ts/global/global.ts"

	// Wasm2WatBinary converts compiled modules to text for coverage
	Wasm2WatBinary = "wabt/bin/wasm2wat"
)

// Logging defaults. The test report owns stdout, so operational logs are
// quiet unless asked for.
const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "console"
)

// Metrics naming
const (
	MetricsNamespace = "matchstick"
	MetricsSubsystem = "runner"
)
