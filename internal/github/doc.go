// Package github provides a minimal GitHub REST API client for pulling the
// changed files of a pull request and posting review results back.
//
// It detects the current repository from the local git remote and
// authenticates with the GITHUB_TOKEN environment variable. Inline fixes are
// posted as GitHub suggestion blocks anchored to their line ranges; the
// aggregate review comment becomes the review body.
package github
