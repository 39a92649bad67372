package commands

import (
	"github.com/google/uuid"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// NewGuid emits a freshly generated UUID as an object with a Guid
// property.
type NewGuid struct{}

func (c *NewGuid) Name() string { return "New-Guid" }

func (c *NewGuid) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	obj := value.NewObject()
	obj.Set("Guid", &value.String{Value: uuid.NewString()})
	return []value.Value{obj}, nil
}
