// Package vm implements the Lexem memory core.
//
// This package contains:
//   - the primitive value layer stored in heap cells
//   - reference-counted cells addressed by LxmReference
//   - the BigNode chain: copy-on-write generations with O(1) snapshot
//     and O(diff) rollback and commit
//   - a worklist garbage collector for cells whose count drops to zero
//   - heap metrics, a Prometheus collector and a CBOR diagnostic image
package vm
