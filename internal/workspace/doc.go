// SPDX-License-Identifier: MPL-2.0

// Package workspace manages the per-run directory tree that holds generated
// artifacts and build outputs.
//
// Every run gets its own directory named after a short random run id, laid out as:
//
//	bitbench-<run id>/
//	  gen/<backend>/<mode>/            generated artifacts of one pair
//	  build/<backend>/<mode>/<level>/  build directory of one scenario
//	  staging/                         in-flight generations
//
// ReplaceDir swaps a finished staging directory into place so a pair's
// artifact directory only ever holds the output of one complete generation.
package workspace
