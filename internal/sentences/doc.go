// Package sentences turns the sentence CSV into ordered records.
//
// The first row is a header and is always discarded. Every later row needs at
// least six columns: sentence, translation, contexts, level, attribution, and
// attribution URL. Shorter rows are skipped and counted without consuming a
// position, so audio names stay contiguous (0001, 0002, ...) over the rows that
// made it through.
package sentences
