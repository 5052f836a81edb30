package output

import "github.com/leapstack-labs/pgsyntax/pkg/cst"

// CheckOutput is the structured result of the check command.
type CheckOutput struct {
	Summary CheckSummary `json:"summary" yaml:"summary"`
	Files   []CheckFile  `json:"files" yaml:"files"`
}

// CheckSummary counts what check found.
type CheckSummary struct {
	FilesChecked   int `json:"files_checked" yaml:"files_checked"`
	FilesWithError int `json:"files_with_errors" yaml:"files_with_errors"`
	Statements     int `json:"statements" yaml:"statements"`
	Diagnostics    int `json:"diagnostics" yaml:"diagnostics"`
}

// CheckFile holds the diagnostics of one file.
type CheckFile struct {
	Path        string             `json:"path" yaml:"path"`
	Statements  int                `json:"statements" yaml:"statements"`
	Diagnostics []DiagnosticOutput `json:"diagnostics" yaml:"diagnostics"`
}

// DiagnosticOutput is a diagnostic placed by line and column.
type DiagnosticOutput struct {
	Severity  string `json:"severity" yaml:"severity"`
	Message   string `json:"message" yaml:"message"`
	Line      int    `json:"line" yaml:"line"`
	Column    int    `json:"column" yaml:"column"`
	StartByte int    `json:"start_byte" yaml:"start_byte"`
	EndByte   int    `json:"end_byte" yaml:"end_byte"`
}

// ParseOutput is the structured result of the parse command.
type ParseOutput struct {
	Source      string             `json:"source" yaml:"source"`
	Tree        *cst.Encoded       `json:"tree" yaml:"tree"`
	Diagnostics []DiagnosticOutput `json:"diagnostics" yaml:"diagnostics"`
}

// TokenOutput is one row of the tokens command.
type TokenOutput struct {
	Type    string `json:"type" yaml:"type"`
	Keyword string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Start   int    `json:"start" yaml:"start"`
	End     int    `json:"end" yaml:"end"`
	Text    string `json:"text" yaml:"text"`
}
