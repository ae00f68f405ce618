package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with forge",
		Content: topicQuickstart,
	},
	{
		Name:    "naming",
		Title:   "File Naming",
		Summary: "How code blocks in a response become files",
		Content: topicNaming,
	},
	{
		Name:    "structure",
		Title:   "Directory Trees",
		Summary: "Tree diagrams, directory pre-creation, and package markers",
		Content: topicStructure,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "Config file schema, fields, defaults, and environment",
		Content: topicConfig,
	},
	{
		Name:    "stages",
		Title:   "Workflow Stages",
		Summary: "The four stages, their variables, and resuming",
		Content: topicStages,
	},
	{
		Name:    "artifacts",
		Title:   "Artifacts Directory",
		Summary: "Structure of .forge/artifacts/ and what gets saved",
		Content: topicArtifacts,
	},
}

const topicQuickstart = `Quick Start
===========

1. Initialize a project:

    cd your-project
    forge init

   This creates .forge/config.yaml and editable stage prompts under
   .forge/prompts/.

2. Preview the plan without calling a model:

    forge run "a flask app with one greeting route" --dry-run

3. Run for real:

    forge run "a flask app with one greeting route"

   Files are written under generated_code/ (see 'output' in the config).

4. Iterate interactively instead:

    forge chat

   Every reply is scanned for code blocks and written out as it arrives.
   Type /files to list what was written, /clear to forget the
   conversation, and exit to leave.

5. Re-apply a saved response without calling a model:

    forge apply .forge/artifacts/responses/stage-4-001.md
    pbpaste | forge apply -

Backends: claude (the claude CLI must be on PATH) or gemini (set
GEMINI_API_KEY or GOOGLE_API_KEY, or put it in .env).
`

const topicNaming = `File Naming
===========

A response is split into fenced code blocks. A fence is any line that
starts with three backticks after optional indentation. The first word
after the backticks is the language; the rest of the line is kept as
the info string. An unclosed fence runs to the end of the response.

Each non-empty block gets a path from the first strategy that answers:

  annotation  a file= attribute on the fence line:
                ` + "```" + `python file=app/main.py

  explicit    a filename announced in the prose. The nth announcement in
              the response names the nth block. Recognized forms
              (case-insensitive):
                save this to app.py / save the code as app.py
                create a file named app.py / called app.py
                filename: app.py / filename app.py
                file: app.py
                file app.py
                save this in app.py
                name the file app.py
                ` + "`app.py`" + `
              Announcements are taken in text order; where two forms
              start at the same place the earlier form in this list wins.
              Bare "file X" and backtick forms only count when X looks like
              a path (it contains a dot or a slash).

  content     (opt-in) a conventional name guessed from the language:
              index.html, styles.css, and for python or javascript
              hello_world.EXT when the response mentions "hello world",
              or main.EXT when the block mentions main.

  hint        (opt-in) a backticked path in the paragraph directly above
              the block, found with a markdown parser.

Anything left unnamed becomes generated_code_N.EXT, where N is the
block's position (from 1) and EXT comes from its language (.txt when
unknown).

Paths are confined to the output root. Absolute paths, .. segments, and
symlinks pointing outside the root are refused and reported; the other
blocks are still written. A path naming an existing directory, or one
that an earlier block in the same response turned into a directory, is
redirected to an entry file inside it (main.py, index.js, Main.java, ...).

When several blocks land on the same path the last one wins.

Bodies are cleaned before writing: line endings become \n, trailing
spaces are stripped from each line, leading blank lines are dropped,
and trailing whitespace and stray % characters are removed.

Configure the chain with resolve.strategies in .forge/config.yaml.
`

const topicStructure = `Directory Trees
===============

If a response contains a tree diagram in a plain, text, or shell fenced
block whose first line is a bare "name/", forge creates the drawn
directories under the output root before writing any files:

    project/
    ├── app/
    │   ├── __init__.py
    │   └── routes.py
    └── main.py

The drawn root (project/) is not created; its children land directly
in the output root. Nesting follows the column where each name starts,
so both 3- and 4-column indents work, as do ASCII |-- and ` + "`" + `-- connectors.

When the tree contains Python files, every directory whose name is a
valid identifier gets an empty __init__.py (configurable with
structure.marker; set it to "" to disable). Existing markers are never
overwritten. static/, templates/, docs/, and similar are skipped.

The tree block itself is not written as a file, and it is skipped when
explicit announcements are matched to blocks by position: the first
"Filename:" after a tree names the first code block after it. Fallback
names keep counting it, so the block after a tree is generated_code_2.

Disable with structure.enabled: false.
`

const topicConfig = `Configuration Reference
=======================

Location: .forge/config.yaml (found by walking up from the current
directory). Without one, the defaults below are used.

  name            project name (required)
  backend         claude | gemini                     default: claude
  model           claude: opus | sonnet | haiku       default: sonnet
                  gemini: any model id                default: gemini-2.5-flash
  output          output root, relative to project    default: generated_code
  temperature     0 to 2                              default: 0.2
  max-tokens      response limit (gemini)             default: 4096
  timeout         minutes per completion              default: 10
  retries         attempts per completion             default: 3
  cache-size      completion cache entries, 0 = off   default: 128
  workers         parallel file writes                default: 1
  final-newline   end written files with \n           default: false
  carry-history   one conversation across stages      default: false

  resolve:
    strategies    naming chain, in order              default: [annotation, explicit]
                  (annotation, explicit, content, hint)

  structure:
    enabled       pre-create drawn directories        default: true
    marker        package marker file                 default: __init__.py

  stages:         prompt template per stage, relative to the project
    requirements: .forge/prompts/requirements.md
    design:       .forge/prompts/design.md
    structure:    .forge/prompts/structure.md
    files:        .forge/prompts/files.md

Environment:

  .env                       loaded from the project root; set variables win
  GEMINI_API_KEY             gemini API key (GOOGLE_API_KEY also accepted)
  FORGE_BACKEND, FORGE_MODEL override backend and model

Flags --backend and --model override both the file and the environment.
`

const topicStages = `Workflow Stages
===============

forge run executes four stages in order:

  1 requirements  extract a bulleted list of requirements from the task
  2 design        synthesize a high-level design
  3 structure     propose the project layout; drawn directories are
                  created and the planned file list is saved
  4 files         one completion per planned file; each reply is written
                  through the naming chain with the planned path taking
                  priority. A reply without code fences is written whole.

Prompt templates are expanded with these variables:

  $TASK          the task text
  $REQUIREMENTS  requirements as a bullet list (stage 2 onward)
  $DESIGN        the design (stage 3 onward)
  $STRUCTURE     the planned files, one per line (stage 4)
  $FILE          the file being generated (stage 4)
  $OUTPUT_DIR, $PROJECT_ROOT, $ARTIFACTS_DIR

Unknown variables fall back to the environment.

Each stage saves its state. After a failure or Ctrl-C, resume with:

    forge run --from N

Stages before N reuse their saved outputs. --dry-run prints the plan.
`

const topicArtifacts = `Artifacts Directory
===================

Every run records its work under .forge/artifacts/:

  state.json               run id, task, stage index, status, output root
  timing.json              start, end, and duration per stage
  requirements.md          parsed output of stage 1
  design.md                output of stage 2
  structure.txt            planned files from stage 3
  summary.md               workflow summary with the files created
  prompts/stage-N.md       prompt sent for stage N
  prompts/stage-4-NNN.md   prompt sent for the NNN-th planned file
  responses/...            raw replies, named like the prompts
  logs/                    raw claude CLI output

forge status shows the current state, stage timings, and last summary.
Add .forge/artifacts/ to .gitignore (forge init does this).
`
