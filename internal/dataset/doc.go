// Package dataset loads and validates the JSON ingest format for
// historical toolstring runs.
//
// A dataset file holds runs with their nested tool placements:
//
//	{"runs": [{"run_id": "...", "run_name": "...", "tools": [
//	    {"position": 1, "tool_name": "...", "od": 1.875, "length": 0.35,
//	     "category": "fishing"}]}]}
//
// Load(path) parses and validates; Watch(ctx, path, onChange) reloads the
// file on change so the in-memory store can follow edits without a restart.
// Categories are normalized case-insensitively on ingest, with unrecognized
// values mapped to "other".
package dataset
