package cmd

import (
	"fmt"

	"github.com/mbrombin/fvs/core"
	"github.com/mbrombin/fvs/internal/repository"
)

// openRepository finds the repository root upward from the current
// working directory and opens it. Every subcommand except init needs
// this, so it lives here once rather than being repeated per command.
func openRepository() (*repository.Repository, error) {
	root, err := core.FindRoot()
	if err != nil {
		return nil, fmt.Errorf("not a fvs repository (or any parent up to /): %w", err)
	}
	return repository.Open(root)
}
