// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the CUE parsing helpers shared by the configuration
// loader and the matrix file loader.
//
// Both follow the same flow:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with a schema definition
//  3. Validate and decode to a Go value
//
// # Usage
//
//	//go:embed matrix_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[File](schema, data, "#Matrix",
//	    cueutil.WithFilename("bench.cue"))
//	if err != nil {
//	    return nil, err // already prefixed with file and field path
//	}
//	return res.Value, nil
package cueutil
