// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Helpers cover environment and working directory changes (MustSetenv, MustChdir),
// fixture trees (MustWriteFile, WriteTree) and a manually advanced FakeClock.
package testutil
