package commands

import (
	"os"

	"github.com/dustin/go-humanize"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// GetChildItem lists a directory as one object per entry, with Name,
// Length (bytes), Size (human-readable), Mode, IsDirectory and
// LastWriteTime. The path comes from -Path or the first positional
// argument, defaulting to the current directory.
type GetChildItem struct{}

func (c *GetChildItem) Name() string { return "Get-ChildItem" }

func (c *GetChildItem) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	path := pathArg(ctx, ".")

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, invalidOperation("cannot read directory " + path + ": " + err.Error())
	}

	var out []value.Value
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		obj := value.NewObject()
		obj.Set("Name", &value.String{Value: entry.Name()})
		obj.Set("Length", &value.Number{Value: float64(info.Size())})
		obj.Set("Size", &value.String{Value: humanize.Bytes(uint64(info.Size()))})
		obj.Set("Mode", &value.String{Value: info.Mode().String()})
		obj.Set("IsDirectory", value.FromBool(entry.IsDir()))
		obj.Set("LastWriteTime", &value.String{Value: info.ModTime().Format("2006-01-02 15:04:05")})
		out = append(out, obj)
	}
	return out, nil
}

// pathArg resolves the target path from -Path or the first positional
// argument.
func pathArg(ctx *Context, fallback string) string {
	if v, ok := ctx.Param("Path"); ok {
		return v.Display()
	}
	if len(ctx.Args) > 0 {
		return ctx.Args[0].Display()
	}
	return fallback
}
