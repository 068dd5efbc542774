// Package mmfile provides platform-specific helpers for memory-mapping a
// DTB file read-only, so Doc can walk the structure block directly against
// mapped pages instead of a heap copy of the whole file.
package mmfile
