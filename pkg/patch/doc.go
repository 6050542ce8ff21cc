// Package patch turns single-file unified diffs into an editable updates
// document and back.
//
// ParseUnifiedDiff and SplitChangeGroups break a diff into contiguous change
// groups addressed by base line number. FormatUpdates and ParseUpdates move
// those groups through the plain-text updates format (EncodeJSON and
// DecodeJSON do the same for JSON). After a document has been edited,
// ValidateHunks rejects overlapping records, ApplyHunks replays the rest
// against the base content and a Differ renders a patch that git can stage.
// Every failure is an *Error carrying a code such as STALE_CONTENT, and
// nothing is mutated when validation or replay fails.
package patch
