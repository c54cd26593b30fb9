// Package gitctx extracts branch diffs and file contents from a git
// repository.
//
// It shells out to the git binary with `git -C <repo>` so that every call is
// scoped to the repository being reviewed. [Open] validates the repository,
// [Repo.Resolve] validates refs, and [Repo.Diff] returns the diff between two
// branches partitioned into one [FileDiff] per changed file.
//
// [Split] is the pure partitioner behind [Repo.Diff]; it splits unified diff
// text on `diff --git` headers and uses go-gitdiff to read each file's
// metadata.
package gitctx
