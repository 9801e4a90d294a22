// Package normalize canonicalizes person names and profile URLs into
// comparable keys.
//
// Name is a best-effort heuristic: two spellings of the same person
// usually collapse to one key, but callers must tolerate both false
// positives and false negatives.
package normalize
