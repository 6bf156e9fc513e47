// Package cache provides content-addressed caching for reconstructed file
// content.
//
// Reconstructing a file from a long patch chain costs one decompression and
// one patch application per link. Caching the result by the digest of the
// reconstructed content lets repeated reads of the same content skip the
// chain entirely, across versions and across archives.
package cache
