// Package core holds the few types shared by the syntax core and its
// consumers, such as the diagnostic Severity.
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
