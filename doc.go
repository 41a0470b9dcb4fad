// Package blake3 implements the BLAKE3 cryptographic hash function: an
// incremental, tree-structured hasher producing a 256-bit digest over
// arbitrary byte input, plus keyed-MAC and key-derivation variants.
//
// Three pieces do the work: a 7-round compression function operating on a
// 16-word state, a Merkle-tree engine that folds 1024-byte chunks into
// parent nodes, and a streaming Hasher that absorbs writes of any size
// while staying equivalent to hashing the same bytes all at once.
package blake3

//go:generate python3 gen_vectors.py testdata/blake3-vectors.json
