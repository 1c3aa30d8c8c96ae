// Package shared holds helpers used by more than one package.
//
// testutil provides trip CSV fixtures and a buffered slog handler for
// asserting on log output in tests.
package shared
