// Package gud keeps the full history of a directory tree in a single
// archive file.
//
// A repository is a working tree with a .gud directory holding the archive
// (.gud/versions), its configuration (.gud/config.yaml), and caches that
// speed up commits. Each commit appends one version to the archive: text
// files that changed since the previous commit are stored as patches,
// everything else as snapshots. Any file at any version can be read back,
// and any version can be exported as a directory.
//
// # Quick Start
//
//	repo, err := gud.Init("./project")
//	if err != nil {
//	    return err
//	}
//	result, err := repo.Commit(ctx, "first commit")
//	if err != nil {
//	    return err
//	}
//	content, err := repo.ReadFile(result.Index, "README.md")
//
// For direct access to the archive format, use package
// github.com/meigma/gud/core.
package gud
