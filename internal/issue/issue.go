// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	SchemaNotFoundId Id = iota + 1
	UnsupportedBackendId
	CompilerNotFoundId
	GenerationFailedId
	DriverNotFoundId
	BuildFailedId
	ExecutionFailedId
	StepTimeoutId
	ConfigInvalidId
	MatrixInvalidId
	UnknownTargetId
	RunLockUnavailableId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to look up the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the entry with glamour. stylePath is a glamour style name
// ("dark", "light", "notty") or a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			md += "\n- <" + string(link) + ">"
		}
	}
	return render(md, stylePath)
}

const (
	bitprotoDocs HttpLink = "https://bitproto.readthedocs.io/"
	bitprotoRepo HttpLink = "https://github.com/hit9/bitproto"
)

var (
	render = glamour.Render

	schemaNotFoundIssue = &Issue{
		id: SchemaNotFoundId,
		mdMsg: `
# Benchmark schema not found!

Every backend is generated from one bitproto schema, and it could not be read.

## Things you can try:
- Check the ` + "`schema`" + ` key of your config, or pass it explicitly:
~~~
$ bitbench run --schema ./benchmark/drone.bitproto
~~~
- Paths are resolved against the current directory, so run bitbench from the
  benchmark checkout root.`,
	}

	unsupportedBackendIssue = &Issue{
		id: UnsupportedBackendId,
		mdMsg: `
# Unsupported backend!

Only three backends are benchmarked: ` + "`c`, `go` and `py`" + `.

## Things you can try:
- Fix the ` + "`backend`" + ` field of your matrix file
- List the built-in targets to see valid scenarios:
~~~
$ bitbench targets
~~~`,
	}

	compilerNotFoundIssue = &Issue{
		id: CompilerNotFoundId,
		mdMsg: `
# bitproto compiler not found!

The generation command could not start the compiler.

## Things you can try:
- Install the compiler and make sure it is in your PATH:
~~~
$ pip install bitproto
$ bitproto --version
~~~
- Or point ` + "`compiler.command`" + ` at your build of the compiler.`,
		extLinks: []HttpLink{bitprotoDocs},
	}

	generationFailedIssue = &Issue{
		id: GenerationFailedId,
		mdMsg: `
# Artifact generation failed!

The compiler rejected the schema for one (backend, mode) pair. Scenarios of that
pair were skipped; other pairs still ran.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to print the compiler's output
- In optimized mode, check that the entity filter names a message of the schema:
~~~
$ bitbench run optimization-mode --filter Drone
~~~
- Use ` + "`--halt-on-generation-failure`" + ` to stop at the first failure.`,
		extLinks: []HttpLink{bitprotoDocs, bitprotoRepo},
	}

	driverNotFoundIssue = &Issue{
		id: DriverNotFoundId,
		mdMsg: `
# Benchmark driver not found!

Each backend needs a hand-written driver directory next to the schema.

## Things you can try:
- Check ` + "`driver_root`" + ` (default ` + "`benchmark`" + `)
- Or set ` + "`backends.<backend>.driver_dir`" + ` explicitly in your config.`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Driver build failed!

The generated code and the driver did not compile together. The run continued with
the next scenario.

## Things you can try:
- Check that the native toolchain (` + "`cc`, `go`" + `) is installed
- Keep the workspace to inspect the generated sources:
~~~
$ bitbench run --keep-workspace
~~~
- Review ` + "`backends.<backend>.build`" + ` in your config.`,
	}

	executionFailedIssue = &Issue{
		id: ExecutionFailedId,
		mdMsg: `
# Benchmark driver exited with an error!

Any output printed before the failure is shown in the scenario's section.

## Things you can try:
- Run the driver by hand from the kept workspace
- Review ` + "`backends.<backend>.run`" + ` and its ` + "`env`" + ` entries.`,
	}

	stepTimeoutIssue = &Issue{
		id: StepTimeoutId,
		mdMsg: `
# A step exceeded its timeout!

The compiler or a driver ran longer than allowed and was stopped.

## Things you can try:
- Raise the limit:
~~~
$ bitbench run --timeout 30m
~~~
- Or set ` + "`run.timeout`" + ` / ` + "`compiler.timeout`" + ` (` + "`0`" + ` disables them).`,
	}

	configInvalidIssue = &Issue{
		id: ConfigInvalidId,
		mdMsg: `
# Invalid configuration!

Your config file did not pass validation.

## Things you can try:
- Show where bitbench looks for the file and what it loaded:
~~~
$ bitbench config path
$ bitbench config show
~~~
- Start again from the defaults:
~~~
$ bitbench config init
~~~`,
	}

	matrixInvalidIssue = &Issue{
		id: MatrixInvalidId,
		mdMsg: `
# Invalid matrix!

The scenario matrix has unknown values or lists a scenario twice.

## Things you can try:
- Print the resolved plan to spot duplicates:
~~~
$ bitbench plan full
~~~
- Optimization levels other than ` + "`none`" + ` only apply to the C backend.`,
	}

	unknownTargetIssue = &Issue{
		id: UnknownTargetId,
		mdMsg: `
# Unknown target!

## Things you can try:
- List the available targets:
~~~
$ bitbench targets
~~~`,
	}

	runLockUnavailableIssue = &Issue{
		id: RunLockUnavailableId,
		mdMsg: `
# Could not acquire the run lock!

Scenarios ran without cross-process serialization, so timings may be noisy if
another benchmark ran at the same time.

## Things you can try:
- Check that ` + "`run.lock_file`" + ` points to a writable location
- Disable locking with ` + "`run.exclusive: false`" + ` on platforms without flock.`,
	}

	catalog = []*Issue{
		schemaNotFoundIssue,
		unsupportedBackendIssue,
		compilerNotFoundIssue,
		generationFailedIssue,
		driverNotFoundIssue,
		buildFailedIssue,
		executionFailedIssue,
		stepTimeoutIssue,
		configInvalidIssue,
		matrixInvalidIssue,
		unknownTargetIssue,
		runLockUnavailableIssue,
	}
)

// Values returns every entry in Id order.
func Values() []*Issue {
	return slices.Clone(catalog)
}

func Get(id Id) *Issue {
	if i := slices.IndexFunc(catalog, func(i *Issue) bool { return i.id == id }); i >= 0 {
		return catalog[i]
	}
	return nil
}
