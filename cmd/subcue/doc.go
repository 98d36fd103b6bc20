// Package main hosts the subcue CLI.
//
// The Cobra command tree resolves configuration, builds the logger and the
// optional metrics endpoint, and hands the actual work to the internal
// pipeline and batch packages: transcribing media into caption JSON,
// voicing caption files, watching a directory for new media, and inspecting
// existing captions.
package main
