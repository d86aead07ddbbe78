// Package serialization stores state dictionaries (parameter name to tensor)
// in the SafeTensors format used by HuggingFace.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor entries plus optional "__metadata__"]
//	  [Tensor data: raw little-endian bytes, in name order]
//
// The writer records a SHA-256 of the data section in the metadata under
// "checksum"; the reader verifies it when present.
//
// Example usage:
//
//	if err := serialization.WriteSafeTensors("model.safetensors", stateDict, meta); err != nil {
//	    log.Fatal(err)
//	}
//	stateDict, meta, err := serialization.ReadSafeTensors("model.safetensors")
package serialization
