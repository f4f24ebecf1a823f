// Package id generates the identifiers attached to captured entries.
//
// Entry IDs are ULIDs (Universally Unique Lexicographically Sortable
// Identifiers): 26-character strings that encode a millisecond timestamp
// followed by a random component, so sorting IDs lexicographically also
// sorts the entries they tag into capture order.
//
// Generation uses crypto/rand for the random component and a per-millisecond
// counter to stay collision-free under bursts.
package id
