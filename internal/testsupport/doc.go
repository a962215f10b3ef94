// Package testsupport holds helpers shared by package tests: temp-directory
// configs, stub executables, and an opened journal.
package testsupport
