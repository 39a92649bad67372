package commands

import (
	"os"
	"strings"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// NewItem creates a file, or a directory with -ItemType Directory.
// It emits an object describing the created item.
type NewItem struct{}

func (c *NewItem) Name() string { return "New-Item" }

func (c *NewItem) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	path := pathArg(ctx, "")
	if path == "" {
		return nil, invalidOperation("New-Item requires a path")
	}

	itemType := "file"
	if v, ok := ctx.Param("ItemType"); ok {
		itemType = strings.ToLower(v.Display())
	}

	isDir := false
	switch itemType {
	case "directory", "dir":
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, invalidOperation("cannot create directory " + path + ": " + err.Error())
		}
		isDir = true
	case "file":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, invalidOperation("cannot create " + path + ": " + err.Error())
		}
		f.Close()
	default:
		return nil, invalidOperation("unknown item type: " + itemType)
	}

	obj := value.NewObject()
	obj.Set("Name", &value.String{Value: path})
	obj.Set("IsDirectory", value.FromBool(isDir))
	return []value.Value{obj}, nil
}
