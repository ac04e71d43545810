// SPDX-License-Identifier: MPL-2.0

// Package generator drives the code generator for one (backend, mode) pair.
//
// Generate runs the configured compiler command template into a fresh staging
// directory and, only when the compiler succeeds and produced files, swaps the
// staging directory into the pair's artifact directory. A failed generation leaves
// the previous artifacts and every other pair's directory untouched.
package generator
