package runner

// SystemPrompt asks the model to announce a filename before every code
// block so the explicit resolver can place it.
const SystemPrompt = `You are a software development agent.
Your purpose is to develop custom software based on user requirements.

Follow these steps to complete software development tasks:
1. Understand the user's requirements
2. Plan the development approach
3. Write the code
4. Explain the solution briefly

When generating code:
1. Give a clear filename before each code block (e.g. "Save this to app.py" or "Filename: utils.js")
2. Make sure the code is complete and functional
3. Include appropriate error handling and documentation
4. Write file paths as "directory/filename.ext" (e.g. "models/user.py")
`

var defaultPrompts = map[string]string{
	"requirements": `Analyze the following software development task and extract clear requirements:

$TASK

Reply with a bulleted list of requirements, one per line, starting with "- ".
Keep the requirements minimal: only what is essential to accomplish the task.
`,
	"design": `Task:

$TASK

Requirements:

$REQUIREMENTS

Create a high-level software design that focuses on simplicity:
1. Architecture overview
2. Main components
3. Data models
4. Dependencies between components
`,
	"structure": `Task:

$TASK

Requirements:

$REQUIREMENTS

Design:

$DESIGN

Propose the project structure. Draw it as a directory tree inside a
fenced text block whose first line is the project directory followed by
"/", for example:

` + "```" + `text
project/
├── app/
│   ├── __init__.py
│   └── routes.py
└── README.md
` + "```" + `

List every file that must be written. Keep the project as small as possible.
`,
	"files": `Create the code for the file ` + "`$FILE`" + ` based on:

Requirements:

$REQUIREMENTS

Design:

$DESIGN

Project structure:

$STRUCTURE

Reply with exactly one fenced code block holding the complete contents of
$FILE. Provide only the code, properly formatted and complete.
`,
}

var stageDescriptions = map[string]string{
	"requirements": "extract requirements from the task",
	"design":       "synthesize a high-level design",
	"structure":    "propose the project layout",
	"files":        "generate each planned file",
}

// DefaultPrompt returns the built-in prompt template for stage.
func DefaultPrompt(stage string) string {
	return defaultPrompts[stage]
}
