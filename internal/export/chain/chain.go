// Package chain runs an export as an ordered pipeline of named steps. Each
// step receives the previous step's output (the remote resource id for most
// of the export flow) and the whole run stops at the first failure. Prior
// remote effects are not rolled back; partial remote state is expected and
// tolerated.
package chain

import (
	"context"
	"fmt"
)

// Step is one unit of an export pipeline.
type Step struct {
	Name string
	Run  func(ctx context.Context, input string) (string, error)
}

// Run executes the steps in order, feeding each step's output to the next.
// It returns the final step's output, or the first error wrapped with the
// failing step's name.
func Run(ctx context.Context, steps []Step, input string) (string, error) {
	out := input
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		var err error
		out, err = step.Run(ctx, out)
		if err != nil {
			return "", fmt.Errorf("step %s: %w", step.Name, err)
		}
	}
	return out, nil
}
