// Package keyword extracts keywords and representative phrases from Korean
// text by ranking n-gram candidates against the document with a sentence
// embedding model.
//
// Candidates follow a count-vectorizer vocabulary: lower-cased Unicode words
// of at least two characters, joined into n-grams of the requested window.
// Each candidate is scored by the cosine similarity of its embedding with the
// embedding of the document it came from.
package keyword
