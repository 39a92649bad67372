package commands

import "github.com/opsh-lang/opsh/pkg/opsh/value"

// WriteOutput passes its pipeline input through unchanged; with no
// input it emits its positional arguments, expanding one level of
// arrays so `Write-Output @(1, 2)` yields two items.
type WriteOutput struct{}

func (c *WriteOutput) Name() string { return "Write-Output" }

func (c *WriteOutput) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	if len(ctx.Input) > 0 {
		return ctx.Input, nil
	}
	return ctx.UnrollArgs(), nil
}
