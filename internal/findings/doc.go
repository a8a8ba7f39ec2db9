// Package findings turns collected statistics into prioritized findings and
// short actionable recommendations.
package findings
