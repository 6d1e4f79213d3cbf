// Copyright © 2024 The ELPS authors

// Package docs embeds the pyrefcheck user guide for use by the CLI.
package docs

import _ "embed"

// Guide describes how definedness is decided and how to configure the
// checker.
//
//go:embed guide.md
var Guide string
