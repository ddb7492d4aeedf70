// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package bootstrap handles kurt project initialization and setup.
//
// A typical workflow:
//
//	info, err := bootstrap.InitProject(bootstrap.ProjectConfig{
//	    ProjectID: "myproject",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("project initialized at: %s\n", info.DataDir)
//
//	backend, err := bootstrap.OpenProject(bootstrap.ProjectConfig{
//	    ProjectID: "myproject",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// InitProject is idempotent: re-running it on an existing project is safe
// and leaves data intact, so it can be used from scripts.
package bootstrap
