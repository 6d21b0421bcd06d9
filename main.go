// =============================================================================
// Column Splitter - Main Entry Point
// =============================================================================
//
// USAGE:
//   splitter split <file>   - Split a spreadsheet into column-limited parts
//   splitter serve          - Serve the upload form and downloads over HTTP
//   splitter version        - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Splitting, spreadsheet I/O, config, logging, server
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/xlsx-column-splitter/cmd"
)

func main() {
	cmd.Execute()
}
