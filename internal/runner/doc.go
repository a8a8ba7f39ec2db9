// Package runner executes review steps over content, files and directory
// trees and bundles the results with statistics, progress and prioritized
// findings.
//
// Steps run strictly in list order. An error or panic inside a step becomes
// an error StepResult for that step only; directory walks likewise isolate
// failures per file.
package runner
